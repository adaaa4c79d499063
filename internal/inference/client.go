// Package inference wraps the hosted model endpoints behind one HTTP
// client. Every model call goes through its own circuit breaker so a
// struggling endpoint sheds load quickly instead of tying up handlers.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/config"
	"github.com/vetlink/vetlink/pkg/metrics"
)

// Model names, used for breakers, metrics and routing.
const (
	ModelDisease      = "disease"
	ModelMultiDisease = "multi_disease"
	ModelLimping      = "limping"
	ModelPose         = "pose"
	ModelDemand       = "demand"
)

// HTTPError is a non-2xx reply from a model endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	cfg      config.InferenceConfig
	http     *http.Client
	video    *http.Client
	log      *zap.Logger
	metrics  *metrics.Collector
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg config.InferenceConfig, collector *metrics.Collector, log *zap.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		video:    &http.Client{Timeout: cfg.VideoTimeout},
		log:      log,
		metrics:  collector,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}

	for _, model := range []string{ModelDisease, ModelMultiDisease, ModelLimping, ModelPose, ModelDemand} {
		model := model
		c.breakers[model] = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "inference-" + model,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("inference breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// PredictJSON posts a JSON payload to the model endpoint and decodes the
// raw response into out.
func (c *Client) PredictJSON(ctx context.Context, model string, payload, out any) error {
	url, err := c.urlFor(model)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", model, err)
	}

	raw, err := c.execute(ctx, model, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", model, err)
	}
	return nil
}

// PredictMedia uploads a file (video or image) as multipart form data
// under the given field name. Media endpoints get the long timeout.
func (c *Client) PredictMedia(ctx context.Context, model, field, filename string, data []byte, out any) error {
	url, err := c.urlFor(model)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}
	contentType := mw.FormDataContentType()

	raw, err := c.execute(ctx, model, c.video, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", model, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, model string, client *http.Client, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	start := time.Now()
	raw, err := c.breakers[model].Execute(func() ([]byte, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling %s endpoint: %w", model, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", model, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	})

	c.metrics.InferenceDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.InferenceRequests.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	c.metrics.InferenceRequests.WithLabelValues(model, "success").Inc()
	return raw, nil
}

func (c *Client) urlFor(model string) (string, error) {
	urls := map[string]string{
		ModelDisease:      c.cfg.DiseaseURL,
		ModelMultiDisease: c.cfg.MultiDiseaseURL,
		ModelLimping:      c.cfg.LimpingURL,
		ModelPose:         c.cfg.PoseURL,
		ModelDemand:       c.cfg.DemandURL,
	}
	url, ok := urls[model]
	if !ok || url == "" {
		return "", fmt.Errorf("no endpoint configured for model %q", model)
	}
	return url, nil
}
