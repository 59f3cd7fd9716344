package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/folio/folio/internal/apperror"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// Validator checks request DTOs and turns the first failure into a
// client-facing message.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, errors.New("translator not found")
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, translator: trans}, nil
}

func (v *Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperror.Validation(fieldErrs[0].Translate(v.translator))
	}
	return apperror.Validation("Invalid request body")
}

// normalizer is implemented by requests that clean their fields before
// validation.
type normalizer interface {
	normalize()
}

// decodeJSON reads the body into dst, normalizes it and validates it.
func decodeJSON(r *http.Request, v *Validator, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("Invalid request body")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return v.Validate(dst)
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError writes err as {"error","code"}. Unclassified errors become
// a 500 with a generic message.
func respondWithError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	appErr := apperror.As(err)

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed")
	}

	respondWithJSON(w, status, ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Kind.String(),
	})
}
