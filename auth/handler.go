package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	msgRegistered     = "User registered successfully."
	msgSignedIn       = "Sign-in successful."
	msgResetSent      = "Email sent successfully. Please check your inbox."
	msgGoogleSignedIn = "Google sign-in success."
	msgInvalidBody    = "Invalid request body."
)

var errInvalidBody = errors.New("invalid request body")

func RegisterAccountHandler(svc Service, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := registerAccountRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeError(errInvalidBody, w, logger)
			return
		}

		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			encodeError(ErrMissingFields, w, logger)
			return
		}

		if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
			encodeError(ErrPasswordMismatch, w, logger)
			return
		}

		if err := svc.RegisterAccount(r.Context(), req); err != nil {
			encodeError(err, w, logger)
			return
		}

		encodeResponse(w, http.StatusOK, response{Success: true, Message: msgRegistered})
	})
}

func LoginHandler(svc Service, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := validateCredentialsRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeError(errInvalidBody, w, logger)
			return
		}

		if err := svc.ValidateCredentials(r.Context(), req); err != nil {
			// an unknown email must look exactly like a wrong password
			if errors.Is(err, ErrNotFound) {
				err = ErrInvalidCredentials
			}
			encodeError(err, w, logger)
			return
		}

		encodeResponse(w, http.StatusOK, response{Success: true, Message: msgSignedIn})
	})
}

func ForgotPasswordHandler(svc Service, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := resetPasswordRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeError(errInvalidBody, w, logger)
			return
		}

		if err := svc.ResetPassword(r.Context(), req.Email); err != nil {
			encodeError(err, w, logger)
			return
		}

		encodeResponse(w, http.StatusOK, response{Success: true, Message: msgResetSent})
	})
}

func GoogleSignInHandler(svc Service, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := googleSignInRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeError(errInvalidBody, w, logger)
			return
		}

		if err := svc.SignInWithGoogle(r.Context(), req.Token); err != nil {
			encodeError(err, w, logger)
			return
		}

		encodeResponse(w, http.StatusOK, response{Success: true, Message: msgGoogleSignedIn})
	})
}

func encodeError(err error, w http.ResponseWriter, logger *zap.Logger) {
	code, msg := http.StatusInternalServerError, "Internal server error."

	switch {
	case errors.Is(err, errInvalidBody):
		code, msg = http.StatusBadRequest, msgInvalidBody
	case errors.Is(err, ErrMissingFields):
		code, msg = http.StatusBadRequest, "Email and password are required."
	case errors.Is(err, ErrPasswordMismatch):
		code, msg = http.StatusBadRequest, "Passwords do not match."
	case errors.Is(err, ErrExistingEmail):
		code, msg = http.StatusBadRequest, "Email already in use."
	case errors.Is(err, ErrInvalidCredentials):
		code, msg = http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, ErrNotFound):
		code, msg = http.StatusNotFound, "Email not found."
	case errors.Is(err, ErrNotificationFailed):
		code, msg = http.StatusInternalServerError, "Email send failure."
	case errors.Is(err, ErrVerificationFailed):
		code, msg = http.StatusUnauthorized, "Google sign-in failed."
	case errors.Is(err, ErrTimeout):
		code, msg = http.StatusGatewayTimeout, "Upstream service timed out."
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
	}

	encodeResponse(w, code, response{Success: false, Message: msg})
}

func encodeResponse(w http.ResponseWriter, code int, res response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(res)
}

func decodeRequest(body io.ReadCloser, v interface{}) error {
	if body == nil {
		return errInvalidBody
	}
	return json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(v)
}
