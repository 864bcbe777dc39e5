package safe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Client talks to one Safe Transaction Service instance
type Client struct {
	serviceURL string
	httpClient *http.Client
}

// NewClient creates a client for the service that indexes chainID
func NewClient(chainID uint64) (*Client, error) {
	serviceURL, ok := TransactionServiceURLs[chainID]
	if !ok {
		return nil, fmt.Errorf("unsupported chain ID: %d", chainID)
	}
	return NewClientWithURL(serviceURL), nil
}

// NewClientWithURL creates a client for a self-hosted service
func NewClientWithURL(serviceURL string) *Client {
	return &Client{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetTransaction retrieves a multisig transaction by its safeTxHash
func (c *Client) GetTransaction(ctx context.Context, safeTxHash common.Hash) (*MultisigTransaction, error) {
	var tx MultisigTransaction
	if err := c.get(ctx, fmt.Sprintf("/api/v1/multisig-transactions/%s/", safeTxHash.Hex()), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetConfirmations lists the owner confirmations of a transaction
func (c *Client) GetConfirmations(ctx context.Context, safeTxHash common.Hash) ([]Confirmation, error) {
	var result struct {
		Results []Confirmation `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/multisig-transactions/%s/confirmations/", safeTxHash.Hex()), &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetPendingTransactions retrieves the queued transactions of a Safe, newest nonce first
func (c *Client) GetPendingTransactions(ctx context.Context, safeAddress common.Address) ([]*MultisigTransaction, error) {
	var result struct {
		Results []*MultisigTransaction `json:"results"`
	}
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/?executed=false&ordering=-nonce", safeAddress.Hex())
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}
