// Package handlers exposes the classification API over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovision/potato-api/internal/classifier"
	"github.com/agrovision/potato-api/internal/storage"
	"github.com/agrovision/potato-api/internal/store"
)

const (
	// maxUploadSize caps uploads at 10MB.
	maxUploadSize = 10 << 20
	// historyLimit is how many records the history endpoint returns.
	historyLimit = 50
)

// Classifier runs the classification pipeline for one uploaded image.
type Classifier interface {
	Classify(raw []byte) (*classifier.Result, error)
}

// RecordStore persists and retrieves classification records.
type RecordStore interface {
	Save(ctx context.Context, rec *store.Record) error
	Get(ctx context.Context, id string) (*store.Record, error)
	ListRecent(ctx context.Context, n int) ([]*store.Record, error)
	Ping(ctx context.Context) error
}

// Handler holds the collaborators the API endpoints need.
type Handler struct {
	classifier Classifier
	records    RecordStore
	objects    storage.ObjectStore
	modelPath  string
	log        *zap.Logger
}

// New wires a handler over its collaborators.
func New(c Classifier, records RecordStore, objects storage.ObjectStore, modelPath string, log *zap.Logger) *Handler {
	return &Handler{
		classifier: c,
		records:    records,
		objects:    objects,
		modelPath:  modelPath,
		log:        log,
	}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/classify", h.Classify)
	mux.HandleFunc("GET /api/history", h.History)
	mux.HandleFunc("GET /api/classifications/{id}", h.Detail)
	mux.HandleFunc("GET /api/health", h.Health)
}

type classifyResponse struct {
	ID                   string                       `json:"id"`
	PredictedClass       classifier.Label             `json:"predicted_class"`
	Confidence           float64                      `json:"confidence"`
	ConfidencePercentage float64                      `json:"confidence_percentage"`
	AllPredictions       map[classifier.Label]float64 `json:"all_predictions"`
	Recommendations      []string                     `json:"recommendations"`
	IsPreprocessed       bool                         `json:"is_preprocessed"`
	ProcessingTime       float64                      `json:"processing_time"`
	ImageSize            string                       `json:"image_size"`
	ImageURL             string                       `json:"image_url"`
	Message              string                       `json:"message"`
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Classify accepts a multipart upload under the "image" field, runs the
// pipeline, stores the image and the record, and returns the full result.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image file too large. Maximum size is 10MB")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	contentType := http.DetectContentType(raw)
	ext, ok := imageExtensions[contentType]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported image format. Allowed formats: JPEG, PNG, WebP")
		return
	}

	result, err := h.classifier.Classify(raw)
	if err != nil {
		h.writeClassifyError(w, err)
		return
	}

	id := uuid.NewString()
	imageURL, err := h.objects.Put(id+ext, raw)
	if err != nil {
		h.log.Error("failed to store uploaded image", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	rec := &store.Record{
		ID:              id,
		PredictedClass:  string(result.PredictedClass),
		Confidence:      result.Confidence,
		AllPredictions:  labelScores(result.AllPredictions),
		Recommendations: result.Recommendations,
		IsPreprocessed:  result.IsPreprocessed,
		ProcessingTime:  result.ProcessingTime,
		ImageSize:       result.ImageSize,
		ImageURL:        imageURL,
	}
	if err := h.records.Save(r.Context(), rec); err != nil {
		h.log.Error("failed to save classification", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save classification")
		return
	}

	h.log.Info("image classified",
		zap.String("id", id),
		zap.String("class", string(result.PredictedClass)),
		zap.Float64("confidence", result.Confidence),
		zap.String("image_size", result.ImageSize),
		zap.Float64("processing_time", result.ProcessingTime))

	writeJSON(w, http.StatusOK, classifyResponse{
		ID:                   id,
		PredictedClass:       result.PredictedClass,
		Confidence:           result.Confidence,
		ConfidencePercentage: round2(result.Confidence * 100),
		AllPredictions:       result.AllPredictions,
		Recommendations:      result.Recommendations,
		IsPreprocessed:       result.IsPreprocessed,
		ProcessingTime:       round2(result.ProcessingTime),
		ImageSize:            result.ImageSize,
		ImageURL:             imageURL,
		Message:              "Image classified successfully",
	})
}

// writeClassifyError maps pipeline error kinds to status codes: bad input is
// the client's to fix, everything else is a server-side fault.
func (h *Handler) writeClassifyError(w http.ResponseWriter, err error) {
	var preprocessErr *classifier.PreprocessError
	var notFoundErr *classifier.ModelNotFoundError
	var shapeErr *classifier.ShapeMismatchError
	var inferenceErr *classifier.InferenceError

	switch {
	case errors.As(err, &preprocessErr):
		h.log.Warn("preprocessing failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		h.log.Error("model missing", zap.Error(err))
		writeError(w, http.StatusInternalServerError,
			"Model file not found. Please ensure the ONNX model is in the correct location")
	case errors.As(err, &shapeErr), errors.As(err, &inferenceErr):
		h.log.Error("inference failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Classification failed")
	default:
		h.log.Error("classification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

type historyResponse struct {
	Count   int             `json:"count"`
	Results []recordPayload `json:"results"`
}

type recordPayload struct {
	ID                   string             `json:"id"`
	PredictedClass       string             `json:"predicted_class"`
	Confidence           float64            `json:"confidence"`
	ConfidencePercentage float64            `json:"confidence_percentage"`
	AllPredictions       map[string]float64 `json:"all_predictions"`
	Recommendations      []string           `json:"recommendations"`
	IsPreprocessed       bool               `json:"is_preprocessed"`
	ProcessingTime       float64            `json:"processing_time"`
	ImageSize            string             `json:"image_size"`
	ImageURL             string             `json:"image_url"`
	CreatedAt            time.Time          `json:"created_at"`
}

func toPayload(rec *store.Record) recordPayload {
	return recordPayload{
		ID:                   rec.ID,
		PredictedClass:       rec.PredictedClass,
		Confidence:           rec.Confidence,
		ConfidencePercentage: round2(rec.Confidence * 100),
		AllPredictions:       rec.AllPredictions,
		Recommendations:      rec.Recommendations,
		IsPreprocessed:       rec.IsPreprocessed,
		ProcessingTime:       rec.ProcessingTime,
		ImageSize:            rec.ImageSize,
		ImageURL:             rec.ImageURL,
		CreatedAt:            rec.CreatedAt,
	}
}

// History returns the latest classifications, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecent(r.Context(), historyLimit)
	if err != nil {
		h.log.Error("failed to list classifications", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	results := make([]recordPayload, 0, len(records))
	for _, rec := range records {
		results = append(results, toPayload(rec))
	}
	writeJSON(w, http.StatusOK, historyResponse{Count: len(results), Results: results})
}

// Detail returns one classification by id.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Classification not found")
		return
	}
	if err != nil {
		h.log.Error("failed to load classification", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve classification")
		return
	}
	writeJSON(w, http.StatusOK, toPayload(rec))
}

// Health reports the status of the API and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, statErr := os.Stat(h.modelPath)
	dbErr := h.records.Ping(r.Context())
	storageErr := h.objects.Ready()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"model_loaded":       statErr == nil,
		"model_path":         h.modelPath,
		"database_connected": dbErr == nil,
		"storage_ready":      storageErr == nil,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

func labelScores(m map[classifier.Label]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for label, score := range m {
		out[string(label)] = score
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
