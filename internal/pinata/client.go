package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blues/hns/internal/config"
	"github.com/blues/hns/internal/logger"
)

// PublishError 上游固定服务错误，携带上游状态码和响应内容
type PublishError struct {
	StatusCode int
	Message    string
}

func (e *PublishError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("pinata publish failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pinata publish failed: %s", e.Message)
}

// Client Pinata固定服务客户端
type Client struct {
	apiKey     string
	secretKey  string
	gateway    string
	pinUrl     string
	httpClient *http.Client
}

// NewClient 创建Pinata客户端
func NewClient(cfg config.PinataConfig) *Client {
	return &Client{
		apiKey:    cfg.ApiKey,
		secretKey: cfg.SecretKey,
		gateway:   strings.TrimSuffix(cfg.Gateway, "/"),
		pinUrl:    cfg.PinUrl,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// pinRequest pinJSONToIPFS请求体
type pinRequest struct {
	PinataContent  interface{}    `json:"pinataContent"`
	PinataMetadata pinMeta        `json:"pinataMetadata"`
	PinataOptions  map[string]int `json:"pinataOptions"`
}

type pinMeta struct {
	Name string `json:"name"`
}

// pinResponse pinJSONToIPFS响应体
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Publish 将元数据文档上传至Pinata，返回可解析的网关URL。
// 单次外呼，不做重试；重试策略由调用方决定。
func (c *Client) Publish(ctx context.Context, metadata *Metadata) (string, error) {
	if c.apiKey == "" || c.secretKey == "" {
		return "", &PublishError{Message: "pinata api keys not configured"}
	}

	body, err := json.Marshal(pinRequest{
		PinataContent: metadata,
		PinataMetadata: pinMeta{
			Name: fmt.Sprintf("hackathon-project-%s-%d", metadata.Name, time.Now().UnixMilli()),
		},
		PinataOptions: map[string]int{"cidVersion": 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pinUrl, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &PublishError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", &PublishError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	var pinResp pinResponse
	if err := json.Unmarshal(respBody, &pinResp); err != nil {
		return "", &PublishError{Message: fmt.Sprintf("invalid pin response: %v", err)}
	}
	if pinResp.IpfsHash == "" {
		return "", &PublishError{Message: "pin response missing IpfsHash"}
	}

	url := c.GatewayURL(pinResp.IpfsHash)
	logger.Info("Metadata pinned to IPFS: %s", url)
	return url, nil
}

// GatewayURL 根据IPFS哈希拼接网关URL
func (c *Client) GatewayURL(ipfsHash string) string {
	return fmt.Sprintf("%s/ipfs/%s", c.gateway, ipfsHash)
}
