package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RequestToken exchanges credentials for an access token. The body is
// form-encoded with the OAuth2 password-flow field names.
func (c *Client) RequestToken(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, resp, err := c.doRequest(ctx, http.MethodPost, tokenPath, "",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := c.parseResponse(ctx, req, tokenPath, resp, &tok); err != nil {
		return nil, err
	}

	if tok.AccessToken == "" {
		return nil, &DecodeError{Err: fmt.Errorf("response has no access_token")}
	}

	return &tok, nil
}

// Authenticate returns only the access token. It lets *Client act as a
// session authenticator.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	tok, err := c.RequestToken(ctx, username, password)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
