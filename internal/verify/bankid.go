package verify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nordicvoice/voicebooking/pkg/logging"
)

const bankIDTimeout = 10 * time.Second

// BankIDClient talks to the BankID Relying Party API (v6). The API requires
// mutual TLS with an RP certificate issued by the bank.
type BankIDClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewBankIDClient creates a BankID RP client. certFile/keyFile hold the RP
// certificate, caFile the BankID server root. Empty paths skip mTLS setup,
// which only works against local stubs.
func NewBankIDClient(baseURL, certFile, keyFile, caFile string, logger *logging.Logger) (*BankIDClient, error) {
	hc := &http.Client{Timeout: bankIDTimeout}

	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("verify: load rp certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		if caFile != "" {
			caPEM, err := os.ReadFile(caFile)
			if err != nil {
				return nil, fmt.Errorf("verify: read ca bundle: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("verify: no certificates in ca bundle %s", caFile)
			}
			tlsCfg.RootCAs = pool
		}
		hc.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	return &BankIDClient{baseURL: baseURL, httpClient: hc, logger: logger}, nil
}

func (c *BankIDClient) post(ctx context.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("verify: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("verify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("verify: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrUnknownOrder
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verify: %s: status %d: %s", path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("verify: decode response: %w", err)
		}
	}
	return nil
}

func (c *BankIDClient) Start(ctx context.Context, personalNumber, endUserIP string) (string, error) {
	body := map[string]interface{}{
		"endUserIp": endUserIP,
	}
	if personalNumber != "" {
		body["requirement"] = map[string]string{"personalNumber": personalNumber}
	}
	var out struct {
		OrderRef string `json:"orderRef"`
	}
	if err := c.post(ctx, "/rp/v6.0/auth", body, &out); err != nil {
		return "", err
	}
	c.logger.Info("bankid order started", "order_ref", out.OrderRef)
	return out.OrderRef, nil
}

func (c *BankIDClient) Collect(ctx context.Context, orderRef string) (*Status, error) {
	var out struct {
		Status         string `json:"status"`
		HintCode       string `json:"hintCode"`
		CompletionData struct {
			User struct {
				PersonalNumber string `json:"personalNumber"`
				Name           string `json:"name"`
			} `json:"user"`
		} `json:"completionData"`
	}
	if err := c.post(ctx, "/rp/v6.0/collect", map[string]string{"orderRef": orderRef}, &out); err != nil {
		return nil, err
	}
	st := &Status{HintCode: out.HintCode}
	switch out.Status {
	case "complete":
		st.State = StateComplete
		st.Name = out.CompletionData.User.Name
		st.PersonalNumber = out.CompletionData.User.PersonalNumber
	case "failed":
		st.State = StateFailed
	default:
		st.State = StatePending
	}
	return st, nil
}

func (c *BankIDClient) Cancel(ctx context.Context, orderRef string) error {
	return c.post(ctx, "/rp/v6.0/cancel", map[string]string{"orderRef": orderRef}, nil)
}
