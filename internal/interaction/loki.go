package interaction

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/httpclient"
)

// LokiSink pushes records to a Loki instance via the push API.
type LokiSink struct {
	url    string
	labels map[string]string
	client *http.Client
}

func NewLokiSink(cfg config.LokiConfig) *LokiSink {
	return &LokiSink{
		url:    strings.TrimRight(cfg.URL, "/") + "/loki/api/v1/push",
		labels: cfg.Labels,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

func (s *LokiSink) push(ctx context.Context, labels map[string]string, ts time.Time, line any) error {
	payload, err := json.Marshal(line)
	if err != nil {
		return err
	}

	body := lokiPush{
		Streams: []lokiStream{{
			Stream: labels,
			Values: [][2]string{{
				strconv.FormatInt(ts.UnixNano(), 10),
				string(payload),
			}},
		}},
	}

	return httpclient.SendRequest(ctx, s.client, "POST", s.url, nil, body, nil)
}

func (s *LokiSink) baseLabels() map[string]string {
	labels := make(map[string]string, len(s.labels)+4)
	for k, v := range s.labels {
		labels[k] = v
	}
	return labels
}

func (s *LokiSink) WriteSuccess(ctx context.Context, rec *Record) error {
	labels := s.baseLabels()
	labels["user_id"] = rec.UserID
	labels["endpoint"] = rec.Endpoint
	labels["provider"] = rec.Provider
	labels["model"] = rec.Model

	return s.push(ctx, labels, rec.Timestamp, rec)
}

func (s *LokiSink) WriteError(ctx context.Context, rec *ErrorRecord) error {
	labels := s.baseLabels()
	labels["level"] = "error"
	labels["endpoint"] = rec.Endpoint
	if rec.UserID != "" {
		labels["user_id"] = rec.UserID
	}

	return s.push(ctx, labels, rec.Timestamp, rec)
}
