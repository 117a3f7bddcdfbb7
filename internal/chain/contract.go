package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// 黑客松NFT合约ABI定义（简化版）
const contractABI = `[
	{
		"inputs": [
			{"internalType": "string", "name": "databaseProjectId", "type": "string"},
			{"internalType": "string", "name": "metadataUri", "type": "string"}
		],
		"name": "mintHackathonNFT",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "string", "name": "databaseProjectId", "type": "string"}],
		"name": "isProjectMinted",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"name": "ownerOf",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"name": "tokenURI",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "from", "type": "address"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "tokenId", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "string", "name": "databaseProjectId", "type": "string"}],
		"name": "getProjectInfo",
		"outputs": [
			{"internalType": "string", "name": "databaseId", "type": "string"},
			{"internalType": "string", "name": "metadataUri", "type": "string"},
			{"internalType": "address", "name": "minter", "type": "address"},
			{"internalType": "uint256", "name": "tokenId", "type": "uint256"},
			{"internalType": "uint256", "name": "mintedAt", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "name": "projectId", "type": "string"},
			{"indexed": true, "name": "tokenId", "type": "uint256"},
			{"indexed": true, "name": "minter", "type": "address"},
			{"indexed": false, "name": "projectName", "type": "string"}
		],
		"name": "HackathonNFTMinted",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": true, "name": "tokenId", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// ProjectInfo 合约侧项目记录
type ProjectInfo struct {
	DatabaseId  string
	MetadataUri string
	Minter      common.Address
	TokenId     *big.Int
	MintedAt    *big.Int
}

// Contract 黑客松NFT合约工具类
type Contract struct {
	address common.Address
	abi     abi.ABI
}

// NewContract 创建合约实例
func NewContract(address string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address: %s", address)
	}

	parsedABI, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &Contract{
		address: common.HexToAddress(address),
		abi:     parsedABI,
	}, nil
}

// Address 获取合约地址
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI 获取合约ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// PackMint 编码mintHackathonNFT调用数据
func (c *Contract) PackMint(projectId, metadataUri string) ([]byte, error) {
	return c.abi.Pack("mintHackathonNFT", projectId, metadataUri)
}

// PackTransferFrom 编码transferFrom调用数据
func (c *Contract) PackTransferFrom(from, to common.Address, tokenId *big.Int) ([]byte, error) {
	return c.abi.Pack("transferFrom", from, to, tokenId)
}

// PackOwnerOf 编码ownerOf调用数据
func (c *Contract) PackOwnerOf(tokenId *big.Int) ([]byte, error) {
	return c.abi.Pack("ownerOf", tokenId)
}

// PackIsProjectMinted 编码isProjectMinted调用数据
func (c *Contract) PackIsProjectMinted(projectId string) ([]byte, error) {
	return c.abi.Pack("isProjectMinted", projectId)
}

// PackGetProjectInfo 编码getProjectInfo调用数据
func (c *Contract) PackGetProjectInfo(projectId string) ([]byte, error) {
	return c.abi.Pack("getProjectInfo", projectId)
}

// UnpackOwnerOf 解码ownerOf返回值
func (c *Contract) UnpackOwnerOf(data []byte) (common.Address, error) {
	values, err := c.abi.Unpack("ownerOf", data)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack ownerOf: %w", err)
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected ownerOf output type %T", values[0])
	}
	return owner, nil
}

// UnpackIsProjectMinted 解码isProjectMinted返回值
func (c *Contract) UnpackIsProjectMinted(data []byte) (bool, error) {
	values, err := c.abi.Unpack("isProjectMinted", data)
	if err != nil {
		return false, fmt.Errorf("failed to unpack isProjectMinted: %w", err)
	}
	minted, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isProjectMinted output type %T", values[0])
	}
	return minted, nil
}

// UnpackProjectInfo 解码getProjectInfo返回值
func (c *Contract) UnpackProjectInfo(data []byte) (*ProjectInfo, error) {
	values, err := c.abi.Unpack("getProjectInfo", data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getProjectInfo: %w", err)
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("unexpected getProjectInfo output length %d", len(values))
	}

	info := &ProjectInfo{}
	if v, ok := values[0].(string); ok {
		info.DatabaseId = v
	}
	if v, ok := values[1].(string); ok {
		info.MetadataUri = v
	}
	if v, ok := values[2].(common.Address); ok {
		info.Minter = v
	}
	if v, ok := values[3].(*big.Int); ok {
		info.TokenId = v
	}
	if v, ok := values[4].(*big.Int); ok {
		info.MintedAt = v
	}
	return info, nil
}
