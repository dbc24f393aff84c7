package http

import (
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mindsurvey/metrics"
)

//go:embed static
var staticFiles embed.FS

// Handlers binds the HTTP routes to a predictor.
type Handlers struct {
	predictor *Predictor
	metrics   *metrics.Registry
	logger    *zap.Logger
}

func NewHandlers(predictor *Predictor, registry *metrics.Registry, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{predictor: predictor, metrics: registry, logger: logger}
}

func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(static)))
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("POST /predict", h.handlePredict)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.predictor.Artifact().Info()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"model_type": info.ModelType,
		"trained_at": info.TrainedAt,
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	started := GetStartTime(r.Context())
	if started.IsZero() {
		started = time.Now()
	}
	body, err := io.ReadAll(r.Body)
	var result PredictionResult
	if err == nil {
		result, err = h.predictor.Predict(r.Context(), body)
	}
	h.predictor.observe(err, started)

	if err != nil {
		h.logger.Error("Prediction error",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		writePredictionError(w, err)
		return
	}
	h.logger.Info("Successful prediction",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("prediction", result.Prediction),
		zap.Float64("probability", result.Probability))
	respondJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writePredictionError is the single place where a failed prediction becomes
// a wire response.
func writePredictionError(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   err.Error(),
		Message: "Failed to process prediction",
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
