package httpcontroller

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/stressnet-go/internal/classifier"
	"github.com/tphakala/stressnet-go/internal/errors"
	"github.com/tphakala/stressnet-go/internal/logger"
	"github.com/tphakala/stressnet-go/internal/myaudio"
)

// uploadField is the multipart field carrying the audio file.
const uploadField = "audio"

// pageTitle is the browser title of the upload page.
const pageTitle = "Stress Detection from Audio"

// errMissingUpload is returned when a request carries no audio file.
var errMissingUpload = errors.NewStd("no audio file uploaded")

// PageData represents data for rendering the upload page.
type PageData struct {
	Title        string
	InstanceName string
	Accept       string   // value of the file input accept attribute
	Formats      []string // accepted formats for the hint under the form
	MaxUploadMB  int
	AudioURI     template.URL // data URI of the uploaded clip for the player
	FileName     string
	Error        string
	Result       *ResultView
}

// ResultView is the display form of a prediction.
type ResultView struct {
	Class       string
	Label       string
	Description string
	Suggestion  string
	ImageURL    string
	Scores      []Score
}

// Score is one class's model output.
type Score struct {
	Label string
	Value float32
}

// PredictionResponse is the JSON body returned by POST /api/v1/predict.
type PredictionResponse struct {
	Class         string    `json:"class"`
	Label         string    `json:"label"`
	Index         int       `json:"index"`
	Probabilities []float32 `json:"probabilities"`
	Description   string    `json:"description"`
	Suggestion    string    `json:"suggestion"`
	ImageURL      string    `json:"image_url"`
	Features      []float32 `json:"features,omitempty"`
	Cached        bool      `json:"cached"`
	DurationMs    float64   `json:"duration_ms"`
}

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ClassInfo describes one output class for GET /api/v1/classes.
type ClassInfo struct {
	Index       int          `json:"index"`
	Class       string       `json:"class"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Suggestion  string       `json:"suggestion"`
	ImageURL    string       `json:"image_url"`
	Image       *ProbeResult `json:"image,omitempty"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status        string   `json:"status"`
	Model         string   `json:"model"`
	Formats       []string `json:"formats"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	CachedResults int      `json:"cached_results"`
}

// indexHandler renders the empty upload page.
func (s *Server) indexHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "index", s.newPageData())
}

// uploadHandler classifies the uploaded file and renders the page with the
// result or the error message.
func (s *Server) uploadHandler(c echo.Context) error {
	data := s.newPageData()

	audio, name, format, err := s.readUpload(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		data.Error = err.Error()
		return c.Render(statusForError(err), "index", data)
	}

	data.FileName = name
	data.AudioURI = audioDataURI(audio, format)

	prediction, _, err := s.classify(c.Request().Context(), audio, format)
	if err != nil {
		data.Error = err.Error()
		return c.Render(statusForError(err), "index", data)
	}

	data.Result = newResultView(prediction)
	return c.Render(http.StatusOK, "index", data)
}

// predictHandler is the JSON counterpart of uploadHandler. The averaged MFCC
// vector is included when the request has features=1.
func (s *Server) predictHandler(c echo.Context) error {
	audio, _, format, err := s.readUpload(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return c.JSON(statusForError(err), newErrorResponse(err))
	}

	prediction, cached, err := s.classify(c.Request().Context(), audio, format)
	if err != nil {
		return c.JSON(statusForError(err), newErrorResponse(err))
	}

	resp := PredictionResponse{
		Class:         prediction.Class.Slug(),
		Label:         prediction.Class.Label(),
		Index:         prediction.Index,
		Probabilities: prediction.Probabilities,
		Description:   prediction.Class.Description(),
		Suggestion:    prediction.Class.Suggestion(),
		ImageURL:      prediction.Class.ImageURL(),
		Cached:        cached,
		DurationMs:    float64(prediction.Duration.Microseconds()) / 1000,
	}
	if wantFeatures, _ := strconv.ParseBool(c.QueryParam("features")); wantFeatures {
		resp.Features = prediction.Features
	}
	return c.JSON(http.StatusOK, resp)
}

// classesHandler lists both classes. With check=1 it also probes the
// hot-linked images and reports whether their hosts answer.
func (s *Server) classesHandler(c echo.Context) error {
	classes := make([]ClassInfo, 0, classifier.NumClasses)
	for _, class := range classifier.Classes {
		classes = append(classes, ClassInfo{
			Index:       class.Index(),
			Class:       class.Slug(),
			Label:       class.Label(),
			Description: class.Description(),
			Suggestion:  class.Suggestion(),
			ImageURL:    class.ImageURL(),
		})
	}

	if check, _ := strconv.ParseBool(c.QueryParam("check")); check {
		urls := make([]string, len(classes))
		for i := range classes {
			urls[i] = classes[i].ImageURL
		}
		for i, r := range s.prober.ProbeAll(c.Request().Context(), urls) {
			classes[i].Image = &r
		}
	}

	return c.JSON(http.StatusOK, classes)
}

// healthHandler reports liveness and the loaded model backend.
func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Model:         s.Predictor.Backend(),
		Formats:       s.acceptedFormats(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		CachedResults: s.results.len(),
	})
}

// readUpload returns the uploaded file bytes, its name and normalized format.
func (s *Server) readUpload(c echo.Context) (audio []byte, name, format string, err error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, "", "", he
		}
		return nil, "", "", errors.New(fmt.Errorf("%w: %w", errMissingUpload, err)).
			Component("http-controller").
			Category(errors.CategoryValidation).
			Build()
	}

	if fh.Size > s.Settings.WebServer.MaxUploadBytes() {
		return nil, "", "", echo.ErrStatusRequestEntityTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", "", errors.New(err).
			Component("http-controller").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer func() { _ = f.Close() }()

	audio, err = io.ReadAll(f)
	if err != nil {
		return nil, "", "", errors.New(err).
			Component("http-controller").
			Category(errors.CategoryFileIO).
			Build()
	}

	if s.Metrics != nil {
		s.Metrics.HTTP.RecordUpload(int64(len(audio)))
	}
	return audio, fh.Filename, myaudio.NormalizeFormat(fh.Filename), nil
}

// classify runs the predictor through the result cache. The second return
// value reports a cache hit.
func (s *Server) classify(ctx context.Context, audio []byte, format string) (*classifier.Prediction, bool, error) {
	key := resultKey(audio, format)
	if p, ok := s.results.get(key); ok {
		s.recordCacheLookup(true)
		return p, true, nil
	}
	s.recordCacheLookup(false)

	p, err := s.Predictor.Classify(ctx, audio, format)
	if err != nil {
		GetLogger().WithContext(ctx).Info("classification failed",
			logger.String("kind", classifier.ErrorKind(err)),
			logger.String("format", format),
			logger.Error(err))
		return nil, false, err
	}
	s.results.set(key, p)
	return p, false, nil
}

func (s *Server) recordCacheLookup(hit bool) {
	if s.Metrics != nil && s.results != nil {
		s.Metrics.Classifier.RecordCacheLookup(hit)
	}
}

func (s *Server) newPageData() *PageData {
	formats := s.acceptedFormats()
	accept := make([]string, len(formats))
	for i, f := range formats {
		accept[i] = "." + f
	}
	return &PageData{
		Title:        pageTitle,
		InstanceName: s.Settings.Main.Name,
		Accept:       strings.Join(accept, ","),
		Formats:      formats,
		MaxUploadMB:  s.Settings.WebServer.MaxUploadSize,
	}
}

// acceptedFormats returns the predictor's formats, or every decodable one.
func (s *Server) acceptedFormats() []string {
	if formats := s.Predictor.Formats(); len(formats) > 0 {
		return formats
	}
	return myaudio.SupportedFormats()
}

func newResultView(p *classifier.Prediction) *ResultView {
	scores := make([]Score, 0, len(p.Probabilities))
	for i, v := range p.Probabilities {
		class, err := classifier.ClassFromIndex(i)
		if err != nil {
			continue
		}
		scores = append(scores, Score{Label: class.Label(), Value: v})
	}
	return &ResultView{
		Class:       p.Class.Slug(),
		Label:       p.Class.Label(),
		Description: p.Class.Description(),
		Suggestion:  p.Class.Suggestion(),
		ImageURL:    p.Class.ImageURL(),
		Scores:      scores,
	}
}

func newErrorResponse(err error) ErrorResponse {
	kind := classifier.ErrorKind(err)
	if errors.Is(err, errMissingUpload) {
		kind = "missing-upload"
	}
	return ErrorResponse{Error: err.Error(), Kind: kind}
}

// statusForError maps a pipeline failure to an HTTP status.
func statusForError(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryAudioDecode, errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryShapeMismatch:
		return http.StatusUnprocessableEntity
	case errors.CategoryCancellation:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// audioDataURI embeds the upload for the page's audio player.
func audioDataURI(audio []byte, format string) template.URL {
	//nolint:gosec // G203: MIME type comes from a fixed table and the payload is base64
	return template.URL("data:" + audioMIMEType(format) + ";base64," + base64.StdEncoding.EncodeToString(audio))
}

func audioMIMEType(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
