// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// labManagerPermission is the permission that marks an account as a
// lab manager. Matched case-insensitively.
const labManagerPermission = "labmanager"

// defaultReimbursedPurpose is the print purpose whose billing number
// is forwarded to the accounting service.
const defaultReimbursedPurpose = "Reimbursed Project"

// maxResponseBytes bounds how much of a response body is read. The
// accounting service's responses are small JSON documents.
const maxResponseBytes = 1 << 20

// Config holds configuration for creating an accounting Client.
type Config struct {
	// BaseURL is the root URL of the accounting service. Required.
	BaseURL string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// ReimbursedPurpose is the purpose whose billing number is
	// transmitted with a logged print. Defaults to
	// "Reimbursed Project".
	ReimbursedPurpose string
}

// Client is a typed client for the lab's accounting service. All
// university IDs are hashed before leaving the process; only the
// digest and registered emails ever appear on the wire.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	logger            *slog.Logger
	reimbursedPurpose string
}

// NewClient creates an accounting client from the given configuration.
// Returns an error if BaseURL is empty or unparseable.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("accounting: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("accounting: invalid BaseURL: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reimbursedPurpose := config.ReimbursedPurpose
	if reimbursedPurpose == "" {
		reimbursedPurpose = defaultReimbursedPurpose
	}

	return &Client{
		baseURL:           strings.TrimRight(config.BaseURL, "/"),
		httpClient:        httpClient,
		logger:            logger,
		reimbursedPurpose: reimbursedPurpose,
	}, nil
}

// IsAuthorized reports whether the university ID belongs to a lab
// manager. Unknown IDs are simply not authorized.
func (client *Client) IsAuthorized(ctx context.Context, universityID string) (bool, error) {
	var response userResponse
	query := url.Values{"hashedid": {HashIdentifier(universityID)}}
	if err := client.get(ctx, "user/get", query, &response); err != nil {
		return false, err
	}
	for _, permission := range response.Permissions {
		if strings.EqualFold(permission, labManagerPermission) {
			return true, nil
		}
	}
	return false, nil
}

// DisplayName returns the registered name for a university ID. The
// second result is false when no account exists for the ID.
func (client *Client) DisplayName(ctx context.Context, universityID string) (string, bool, error) {
	var response userResponse
	query := url.Values{"hashedid": {HashIdentifier(universityID)}}
	if err := client.get(ctx, "user/get", query, &response); err != nil {
		return "", false, err
	}
	if response.Name == nil {
		return "", false, nil
	}
	return *response.Name, true, nil
}

// FindIdentifierHash resolves an email to the hashed identifier of its
// account. The second result is false when the email is not
// registered; that is a valid outcome, not an error.
func (client *Client) FindIdentifierHash(ctx context.Context, email string) (string, bool, error) {
	var response findResponse
	query := url.Values{"email": {email}}
	if err := client.get(ctx, "user/find", query, &response); err != nil {
		return "", false, err
	}
	if response.HashedID == nil || *response.HashedID == "" {
		return "", false, nil
	}
	return *response.HashedID, true, nil
}

// LastPrint returns the most recent print logged for the account
// registered under email. A nil result with a nil error means the
// email is unregistered or the account has never printed.
func (client *Client) LastPrint(ctx context.Context, email string) (*LastPrint, error) {
	hashedID, registered, err := client.FindIdentifierHash(ctx, email)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, nil
	}
	return client.lastPrintByHash(ctx, hashedID)
}

// LastPrintSummary returns the registered email for a university ID
// along with the purpose and billing number of the account's most
// recent print, if any. A nil result with a nil error means the ID
// has no account.
func (client *Client) LastPrintSummary(ctx context.Context, universityID string) (*Summary, error) {
	hashedID := HashIdentifier(universityID)

	var user userResponse
	query := url.Values{"hashedid": {hashedID}}
	if err := client.get(ctx, "user/get", query, &user); err != nil {
		return nil, err
	}
	if user.Email == nil || *user.Email == "" {
		return nil, nil
	}
	summary := &Summary{Email: *user.Email}

	var last lastPrintResponse
	if err := client.get(ctx, "print/last", url.Values{"hashedid": {hashedID}}, &last); err != nil {
		return nil, err
	}
	if last.Purpose != nil {
		summary.LastPurpose = *last.Purpose
	}
	if last.BillTo != nil {
		summary.LastBillingNumber = *last.BillTo
	}
	return summary, nil
}

// LogPrint records a print with the accounting service. The billing
// number is transmitted only when the purpose is the reimbursed
// purpose. The boolean result is the service's explicit success flag;
// false without an error means the service declined the record.
func (client *Client) LogPrint(ctx context.Context, request LogPrintRequest) (bool, error) {
	hashedID, registered, err := client.FindIdentifierHash(ctx, request.Email)
	if err != nil {
		return false, err
	}
	if !registered {
		return false, nil
	}

	body := addPrintRequest{
		HashedID: hashedID,
		FileName: request.FileName,
		Material: request.Material,
		Weight:   request.WeightGrams,
		Purpose:  request.Purpose,
		Owed:     request.PaymentOwed,
	}
	if strings.EqualFold(request.Purpose, client.reimbursedPurpose) && request.BillingNumber != "" {
		billingNumber := request.BillingNumber
		body.BillTo = &billingNumber
	}

	var response addPrintResponse
	if err := client.post(ctx, "print/add", body, &response); err != nil {
		return false, err
	}
	if response.Status != "success" {
		client.logger.Warn("print not recorded",
			"status", response.Status,
			"email", request.Email,
			"file", request.FileName,
		)
		return false, nil
	}
	return true, nil
}

// lastPrintByHash fetches the most recent print for a hashed
// identifier. Nil means the account has never printed.
func (client *Client) lastPrintByHash(ctx context.Context, hashedID string) (*LastPrint, error) {
	var response lastPrintResponse
	query := url.Values{"hashedid": {hashedID}}
	if err := client.get(ctx, "print/last", query, &response); err != nil {
		return nil, err
	}
	if response.TimeStamp == nil {
		return nil, nil
	}
	lastPrint := &LastPrint{
		Timestamp: time.Unix(int64(*response.TimeStamp), 0),
	}
	if response.Weight != nil {
		lastPrint.WeightGrams = *response.Weight
	}
	return lastPrint, nil
}

// get executes a GET request against the service and decodes the JSON
// response into result.
func (client *Client) get(ctx context.Context, operation string, query url.Values, result any) error {
	requestURL := client.baseURL + "/" + operation
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &ProtocolError{Op: operation, Detail: fmt.Sprintf("creating request: %v", err)}
	}
	return client.do(operation, request, result)
}

// post executes a POST request with a JSON body and decodes the JSON
// response into result.
func (client *Client) post(ctx context.Context, operation string, requestBody any, result any) error {
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return &ProtocolError{Op: operation, Detail: fmt.Sprintf("encoding request body: %v", err)}
	}
	requestURL := client.baseURL + "/" + operation
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return &ProtocolError{Op: operation, Detail: fmt.Sprintf("creating request: %v", err)}
	}
	request.Header.Set("Content-Type", "application/json")
	return client.do(operation, request, result)
}

// do sends the request and decodes the response, mapping failures to
// the transport/protocol error taxonomy.
func (client *Client) do(operation string, request *http.Request, result any) error {
	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Error("accounting service unreachable", "op", operation, "error", err)
		return &TransportError{Op: operation, Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: operation, Err: err}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		client.logger.Error("accounting service error",
			"op", operation,
			"status", response.StatusCode,
		)
		return &ProtocolError{
			Op:         operation,
			StatusCode: response.StatusCode,
			Detail:     strings.TrimSpace(string(body)),
		}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &ProtocolError{Op: operation, Detail: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}
