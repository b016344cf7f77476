package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"healthrisk/classify"
	"healthrisk/ml"
	"healthrisk/monitoring"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Heart Health Classification Service"

// Handler serves the classification API. Every field is required except Metrics.
type Handler struct {
	Catalog    *classify.Catalog
	Cache      *classify.Cache
	Dispatcher *classify.Dispatcher
	Targets    *classify.TargetPredictor
	Inventory  *classify.Inventory
	ModelDir   string
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics
}

type route struct {
	method  string
	pattern string
	handler http.Handler
}

func (h *Handler) routes() []route {
	routes := []route{
		{"GET", "/health", http.HandlerFunc(h.handleHealth)},
		{"GET", "/classifiers", http.HandlerFunc(h.handleClassifiers)},
		{"POST", "/predict/{classifier}", http.HandlerFunc(h.handlePredict)},
		{"POST", "/predict-all", http.HandlerFunc(h.handlePredictAll)},
		{"POST", "/compare-models/{classifier}", http.HandlerFunc(h.handleCompareModels)},
		{"GET", "/model-info/{classifier}", http.HandlerFunc(h.handleModelInfo)},
		{"POST", "/predict-target/{target}", http.HandlerFunc(h.handlePredictTarget)},
	}
	if h.Metrics != nil {
		routes = append(routes, route{"GET", "/metrics", h.Metrics.Handler()})
	}
	return routes
}

// Register adds every route to mux. A known path requested with the wrong
// method gets 405; any other path gets 404.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, rt := range h.routes() {
		mux.Handle(rt.method+" "+rt.pattern, rt.handler)
		mux.Handle(rt.pattern, methodNotAllowed(rt.method))
	}
	mux.HandleFunc("/", handleNotFound)
}

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status               string                    `json:"status"`
	Service              string                    `json:"service"`
	ModelsLoaded         int                       `json:"models_loaded"`
	AvailableClassifiers []classify.ClassifierName `json:"available_classifiers"`
	ArtifactsOnDisk      int                       `json:"artifacts_on_disk"`
}

// predictionBody is a single prediction or, in batch responses, one slot.
type predictionBody struct {
	Prediction    []float64   `json:"prediction,omitempty"`
	Classifier    string      `json:"classifier,omitempty"`
	Model         string      `json:"model,omitempty"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
	ClassLabels   []string    `json:"class_labels,omitempty"`
	Error         string      `json:"error,omitempty"`
}

type modelInfoBody struct {
	Classifier      classify.ClassifierName `json:"classifier"`
	ModelType       classify.ModelType      `json:"model_type"`
	AvailableModels []classify.ModelType    `json:"available_models"`
	HasPredictProba bool                    `json:"has_predict_proba"`
	Features        []string                `json:"features,omitempty"`
	FeatureCount    int                     `json:"feature_count,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:               "healthy",
		Service:              ServiceName,
		ModelsLoaded:         h.Cache.Len(),
		AvailableClassifiers: h.Catalog.Classifiers(),
		ArtifactsOnDisk:      h.Inventory.Count(),
	})
}

func (h *Handler) handleClassifiers(w http.ResponseWriter, r *http.Request) {
	classifiers := make(map[classify.ClassifierName][]classify.ModelType)
	defaults := make(map[classify.ClassifierName]classify.ModelType)
	for _, name := range h.Catalog.Classifiers() {
		classifiers[name] = h.Catalog.Models(name)
		defaults[name], _ = h.Catalog.Default(name)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classifiers":    classifiers,
		"default_models": defaults,
	})
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	key, err := h.Catalog.Resolve(r.PathValue("classifier"), r.URL.Query().Get("model"))
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	table, err := readTable(r)
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	result, err := h.Dispatcher.PredictKey(key, table)
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	body := resultBody(result, true)
	body.Classifier = string(key.Classifier)
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) handlePredictAll(w http.ResponseWriter, r *http.Request) {
	records, err := readRecords(r)
	if err != nil {
		h.fail(w, r, err, "Batch prediction failed")
		return
	}
	// Only an empty body rejects the batch. Unusable values fail each slot.
	table, inputErr := classify.Normalize(records)
	if errors.Is(inputErr, classify.ErrNoInput) {
		h.fail(w, r, inputErr, "Batch prediction failed")
		return
	}
	predictions := make(map[classify.ClassifierName]predictionBody)
	for _, slot := range h.Dispatcher.PredictAll(table, inputErr) {
		if slot.Err != nil {
			predictions[slot.Key.Classifier] = predictionBody{Error: slot.Err.Error()}
			continue
		}
		predictions[slot.Key.Classifier] = resultBody(slot.Result, true)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func (h *Handler) handleCompareModels(w http.ResponseWriter, r *http.Request) {
	classifier, err := h.Catalog.Classifier(r.PathValue("classifier"))
	if err != nil {
		h.fail(w, r, err, "Model comparison failed")
		return
	}
	table, err := readTable(r)
	if err != nil {
		h.fail(w, r, err, "Model comparison failed")
		return
	}
	models := make(map[classify.ModelType]predictionBody)
	for _, slot := range h.Dispatcher.CompareModels(classifier, table) {
		if slot.Err != nil {
			models[slot.Key.Model] = predictionBody{Error: slot.Err.Error()}
			continue
		}
		body := resultBody(slot.Result, false)
		body.ClassLabels = nil
		models[slot.Key.Model] = body
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classifier": classifier,
		"models":     models,
	})
}

func (h *Handler) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	key, err := h.Catalog.Resolve(r.PathValue("classifier"), r.URL.Query().Get("model"))
	if err != nil {
		h.fail(w, r, err, "Failed to load model info")
		return
	}
	model, err := h.Cache.GetOrLoad(key.Classifier, key.Model)
	if err != nil {
		h.fail(w, r, err, "Failed to load model info")
		return
	}
	writeJSON(w, http.StatusOK, modelInfoBody{
		Classifier:      key.Classifier,
		ModelType:       key.Model,
		AvailableModels: h.Catalog.Models(key.Classifier),
		HasPredictProba: model.HasProbability(),
		Features:        model.Features,
		FeatureCount:    len(model.Features),
	})
}

func (h *Handler) handlePredictTarget(w http.ResponseWriter, r *http.Request) {
	path, err := classify.MetaPath(h.ModelDir, r.PathValue("target"))
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	records, err := readRecords(r)
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	if len(records) != 1 {
		h.fail(w, r, &classify.InputError{Message: "Expected a single JSON object"}, "Prediction failed")
		return
	}
	out, err := h.Targets.Predict(path, records[0])
	if err != nil {
		h.fail(w, r, err, "Prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func methodNotAllowed(allowed string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Endpoint not found"})
}

func resultBody(result *classify.Result, withModel bool) predictionBody {
	body := predictionBody{
		Prediction:    result.Labels,
		Probabilities: result.Probabilities,
		ClassLabels:   result.ClassLabels,
	}
	if withModel {
		body.Model = string(result.Key.Model)
	}
	return body
}

func readRecords(r *http.Request) ([]classify.Record, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &classify.InputError{Message: "could not read request body: " + err.Error()}
	}
	return classify.ParseRecords(data)
}

func readTable(r *http.Request) (*ml.Table, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	return classify.Normalize(records)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, classify.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, classify.ErrModelNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors get prefix prepended.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	status := statusFor(err)
	message := err.Error()
	fields := []zap.Field{
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status == http.StatusInternalServerError {
		message = prefix + ": " + message
		h.Logger.Error("request failed", fields...)
	} else {
		h.Logger.Warn("request rejected", fields...)
	}
	writeJSON(w, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
