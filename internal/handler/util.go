// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/middleware"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail,omitempty"`
}

// errorResponder maps service errors to the API error body.
type errorResponder struct {
	debug  bool
	logger *logger.Logger
}

func (e errorResponder) respond(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusCode(err)
	body := errorBody{
		Success:    false,
		Message:    apperr.PublicMessage(err),
		StatusCode: status,
	}
	if e.debug {
		body.Detail = err.Error()
	}

	log := e.logger.WithRequest(middleware.GetCorrelationID(r.Context()), middleware.GetLoginID(r.Context()))
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
	} else {
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}

	writeJSON(w, status, body)
}

// flexBool accepts true/false, 1/0 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*b = flexBool(parseFlexBool(s))
	return nil
}

func parseFlexBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

var validate = validator.New()

// pipelineForm is the body of a pipeline turn in any of the accepted encodings.
type pipelineForm struct {
	Prompt         string   `json:"prompt" validate:"max=20000"`
	NextGenSummary string   `json:"next_gen_summary" validate:"max=20000"`
	NewChat        flexBool `json:"new_chat"`
}

func formFromValues(get func(string) string) *pipelineForm {
	return &pipelineForm{
		Prompt:         get("prompt"),
		NextGenSummary: get("next_gen_summary"),
		NewChat:        flexBool(parseFlexBool(get("new_chat"))),
	}
}

// decodePipelineForm reads a JSON, urlencoded or multipart body. Multipart bodies may carry
// one file in fileField.
func decodePipelineForm(r *http.Request, fileField string, maxBytes int64) (*pipelineForm, *model.Attachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, nil, bodyError(err)
		}
		att, err := readUpload(r, fileField)
		if err != nil {
			return nil, nil, err
		}
		return formFromValues(r.PostFormValue), att, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, bodyError(err)
		}
		return formFromValues(r.PostFormValue), nil, nil

	default:
		var form pipelineForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, bodyError(err)
		}
		return &form, nil, nil
	}
}

// readUpload returns the file in field, or nil when the request carries none.
func readUpload(r *http.Request, field string) (*model.Attachment, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, bodyError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err)
	}
	return &model.Attachment{
		Data:      data,
		MediaType: header.Header.Get("Content-Type"),
		Filename:  header.Filename,
	}, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(apperr.KindBadRequest, "Uploaded file is too large", err)
	}
	return apperr.Wrap(apperr.KindBadRequest, "Invalid request body", err)
}
