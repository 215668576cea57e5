package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Brownie44l1/trash-api/internal/metrics"
	"github.com/Brownie44l1/trash-api/internal/model"
	"github.com/Brownie44l1/trash-api/internal/preprocess"
	"github.com/rs/zerolog/log"
)

const (
	detailNotLoaded    = "Model not loaded"
	detailNotImage     = "File must be an image"
	detailEmptyFile    = "Empty file uploaded"
	detailInvalidImage = "Uploaded file is not a valid image"
	detailOpenImage    = "Error opening uploaded image"
	detailProcessing   = "Error processing image"
	detailTooLarge     = "File too large"
	detailMissingFile  = "Field 'file' is required"
	detailBadForm      = "Failed to parse form"
)

type Options struct {
	MaxUploadBytes int64
	MaxImagePixels int64
}

type Handler struct {
	modelServer *model.Server
	metrics     *metrics.Metrics
	opts        Options
}

func NewHandler(modelServer *model.Server, m *metrics.Metrics, opts Options) *Handler {
	m.SetModelLoaded(modelServer.Ready())
	return &Handler{
		modelServer: modelServer,
		metrics:     m,
		opts:        opts,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.modelServer.Ready(),
	})
}

// Classes lists the model-native category names. Unlike Classify, the names
// are not passed through the display remapping.
func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ClassesResponse{
		Classes: h.modelServer.Labels().Classes(),
	})
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	result, err := h.classify(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Debug().Str("class", result.PredictedClass).Float64("confidence", result.Confidence).Msg("Classified upload")
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) (*model.ClassificationResponse, error) {
	if !h.modelServer.Ready() {
		return nil, ServiceUnavailable(detailNotLoaded, model.ErrModelNotLoaded)
	}

	contents, contentType, err := h.readUpload(w, r)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(contentType, "image/") {
		return nil, BadRequest(detailNotImage, nil)
	}
	if len(contents) == 0 {
		return nil, BadRequest(detailEmptyFile, nil)
	}

	img, err := preprocess.Decode(contents, h.opts.MaxImagePixels)
	if err != nil {
		if errors.Is(err, preprocess.ErrInvalidImage) {
			log.Warn().Err(err).Str("contentType", contentType).Int("size", len(contents)).Msg("Unidentified image upload")
			return nil, BadRequest(detailInvalidImage, err)
		}
		return nil, InternalError(detailOpenImage, err)
	}

	input := preprocess.Tensor(img)

	start := time.Now()
	result, err := h.modelServer.Classify(r.Context(), input)
	if err != nil {
		return nil, InternalError(detailProcessing, err)
	}
	h.metrics.ObserveClassification(result.PredictedClass, time.Since(start))

	return result, nil
}

// readUpload returns the bytes and declared content type of the "file" part.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, "", &Error{Status: http.StatusRequestEntityTooLarge, Detail: detailTooLarge, Err: err}
		case errors.Is(err, http.ErrNotMultipart):
			return nil, "", &Error{Status: http.StatusUnprocessableEntity, Detail: detailMissingFile, Err: err}
		default:
			return nil, "", BadRequest(detailBadForm, err)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &Error{Status: http.StatusUnprocessableEntity, Detail: detailMissingFile, Err: err}
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, "", InternalError(detailProcessing, err)
	}

	log.Debug().Str("filename", header.Filename).Int64("size", header.Size).Msg("Received file")
	return contents, header.Header.Get("Content-Type"), nil
}

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(errorResponse{Detail: detailProcessing})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// writeError reports err to the client without its cause. Anything that is
// not an *Error is treated as an unexpected processing failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var herr *Error
	if !errors.As(err, &herr) {
		herr = InternalError(detailProcessing, err)
	}

	event := log.Warn()
	if herr.Status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(herr.Err).Int("status", herr.Status).Str("path", r.URL.Path).Msg(herr.Detail)

	writeJSON(w, herr.Status, errorResponse{Detail: herr.Detail})
}
