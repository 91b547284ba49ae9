package netlist

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	dto "chainstate/internal/adapter/storage/netlist/dto"
	"chainstate/internal/domain/entity"
	domainRepo "chainstate/internal/domain/repository"
	"chainstate/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Compile-time check
var _ domainRepo.NetworkRepository = (*Repository)(nil)

const defaultFetchTimeout = 15 * time.Second

// Repository loads an endpoint list from a local file or an http(s) URL.
// Sources ending in .yaml or .yml are read as YAML, everything else as the line format.
type Repository struct {
	source string
	client *fasthttp.Client
	logger *zap.Logger
}

// NewRepository creates a repository reading from source.
func NewRepository(source string, logger *zap.Logger) *Repository {
	return &Repository{
		source: source,
		client: &fasthttp.Client{},
		logger: logger.Named("NetworkListStorage"),
	}
}

// Networks reads and parses the source on every call.
func (r *Repository) Networks(ctx context.Context) ([]entity.Network, error) {
	if strings.TrimSpace(r.source) == "" {
		return nil, fmt.Errorf("%w: networks source is empty", apperrors.ErrInvalidInput)
	}

	var (
		body []byte
		err  error
	)
	if isRemote(r.source) {
		body, err = r.fetch(ctx)
	} else {
		body, err = os.ReadFile(r.source)
		if err != nil {
			err = fmt.Errorf("%w: failed to read networks file %s: %v", apperrors.ErrInvalidInput, r.source, err)
		}
	}
	if err != nil {
		r.logger.Error("Failed to load networks", zap.String("source", r.source), zap.Error(err))
		return nil, err
	}

	networks, err := r.parse(body)
	if err != nil {
		r.logger.Error("Failed to parse networks", zap.String("source", r.source), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Loaded networks", zap.String("source", r.source), zap.Int("count", len(networks)))
	return networks, nil
}

func (r *Repository) parse(body []byte) ([]entity.Network, error) {
	if !isYAML(r.source) {
		return ParseText(bytes.NewReader(body))
	}

	var raw dto.NetworkListRaw
	if err := yaml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse networks yaml: %v", apperrors.ErrInvalidInput, err)
	}
	return toDomainNetworks(raw, r.logger), nil
}

// fetch downloads the list, honoring gzip and the context deadline.
func (r *Repository) fetch(ctx context.Context) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.source)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")

	timeout := defaultFetchTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	r.logger.Debug("Fetching networks list", zap.String("url", r.source), zap.Duration("timeout", timeout))

	if err := r.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: failed to fetch networks list: %v", apperrors.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: networks list returned status %d",
			apperrors.ErrExternalServiceFailure, resp.StatusCode(),
		)
	}

	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		body, err := resp.BodyGunzip()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decompress networks list: %v", apperrors.ErrExternalServiceFailure, err)
		}
		return body, nil
	}
	return append([]byte(nil), resp.Body()...), nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func isYAML(source string) bool {
	p := source
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
