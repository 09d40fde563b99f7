package blogsvc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/form"
	"github.com/mkrupp/quill/internal/infra/session"
)

const (
	msgResetMailSent = "An email has been sent with instructions to reset your password."
	msgInvalidToken  = "That is an invalid or expired token"
	msgPasswordReset = "Your password has been updated! You are now able to log in"

	legendResetPassword = "Reset Password"
)

// resetLink builds the absolute URL mailed for token.
func (ht *HTTPTransport) resetLink(token string) string {
	return strings.TrimSuffix(ht.cfg.BaseURL, "/") + routeURL("reset_password", token)
}

// HandleResetRequest asks for an email address and mails a reset link.
func (ht *HTTPTransport) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "reset request", ht.handleResetRequest)
}

func (ht *HTTPTransport) handleResetRequest(w http.ResponseWriter, r *http.Request) error {
	//nolint:exhaustruct
	data := &pageData{Title: legendResetPassword, Legend: legendResetPassword}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "reset_request", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	var input resetRequestInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "reset_request", data)
	}

	ctx := r.Context()

	if err := ht.auth.RequestPasswordReset(ctx, input.Email, ht.resetLink); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	ht.events.CountEvent("password_reset_requested")
	session.FromContext(ctx).AddFlash(session.FlashInfo, msgResetMailSent)
	redirect(w, r, routeURL("login"))

	return nil
}

// HandleResetPassword checks a mailed token and sets a new password.
func (ht *HTTPTransport) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "reset password", ht.handleResetPassword)
}

func (ht *HTTPTransport) handleResetPassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	token := chi.URLParam(r, "token")

	invalidToken := func() error {
		sess.AddFlash(session.FlashWarning, msgInvalidToken)
		redirect(w, r, routeURL("reset_request"))

		return nil
	}

	if _, err := ht.auth.VerifyResetToken(ctx, token); err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return invalidToken()
		}

		return fmt.Errorf("verify reset token: %w", err)
	}

	//nolint:exhaustruct
	data := &pageData{Title: legendResetPassword, Legend: legendResetPassword}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "reset_password", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	var input resetPasswordInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "reset_password", data)
	}

	if err := ht.auth.ResetPassword(ctx, token, input.Password); err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return invalidToken()
		}

		return fmt.Errorf("reset password: %w", err)
	}

	ht.events.CountEvent("password_reset")
	sess.AddFlash(session.FlashSuccess, msgPasswordReset)
	redirect(w, r, routeURL("login"))

	return nil
}
