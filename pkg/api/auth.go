package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// LoginResponse is the outcome of a successful password login.
type LoginResponse struct {
	Token       string
	DisplayName string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type loginBody struct {
	Token string     `json:"token"`
	User  *loginUser `json:"user"`
}

// Login exchanges an email and password for a bearer token. Every failure
// is an *AuthError whose message can be shown as is.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &AuthError{Message: "Email and password are required", Err: Validationf("missing email or password")}
	}

	var body loginBody
	err := c.do(ctx, "login", http.MethodPost, "/api/login", "", loginRequest{Email: email, Password: password}, &body)
	if err != nil {
		if IsConnectivity(err) {
			return nil, &AuthError{Message: "Unable to connect to server", Err: err}
		}
		if rr, ok := IsRejection(err); ok && rr.Message != "" {
			return nil, &AuthError{Message: rr.Message, Err: err}
		}
		return nil, &AuthError{Message: "Invalid email or password", Err: err}
	}
	if body.Token == "" {
		return nil, &AuthError{Message: "Invalid email or password", Err: fmt.Errorf("login: response has no token")}
	}

	return &LoginResponse{Token: body.Token, DisplayName: displayName(body.User, email)}, nil
}

// displayName picks user.name, then user.display_name, then the email.
func displayName(u *loginUser, email string) string {
	if u != nil {
		if n := strings.TrimSpace(u.Name); n != "" {
			return n
		}
		if n := strings.TrimSpace(u.DisplayName); n != "" {
			return n
		}
	}
	return email
}
