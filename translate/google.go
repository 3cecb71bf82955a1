package translate

import (
	"context"
	"errors"
	"net"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Google translates through the Google Cloud Translation API (v2). Texts
// are sent as HTML so inline markup survives.
type Google struct {
	cfg    ProviderConfig
	client *gtranslate.Client
}

// NewGoogle creates a Cloud Translation client. Extra client options are
// appended after the API key.
func NewGoogle(ctx context.Context, cfg ProviderConfig, opts ...option.ClientOption) (*Google, error) {
	if cfg.APIKey == "" && len(opts) == 0 {
		return nil, &ProviderError{Provider: ProviderGoogle, Code: CodeAuth, Err: errors.New("no API key configured")}
	}
	if cfg.APIKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	}
	client, err := gtranslate.NewClient(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGoogle, Code: CodeConnectivity, Err: err}
	}
	return &Google{cfg: cfg, client: client}, nil
}

func (g *Google) Name() string { return ProviderGoogle }

func (g *Google) MaxSegments() int { return MaxSegments }

// Close releases the underlying client.
func (g *Google) Close() error { return g.client.Close() }

func (g *Google) Translate(ctx context.Context, req Request) (Response, error) {
	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return Response{}, &ProviderError{Provider: ProviderGoogle, Code: CodeInvalidRequest, Err: err}
	}
	opts := &gtranslate.Options{Format: gtranslate.HTML}
	if req.SourceLang != "" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return Response{}, &ProviderError{Provider: ProviderGoogle, Code: CodeInvalidRequest, Err: err}
		}
		opts.Source = source
	}
	if g.cfg.Model != "" {
		opts.Model = g.cfg.Model
	}
	res, err := g.client.Translate(ctx, req.Texts, target, opts)
	if err != nil {
		return Response{}, &ProviderError{Provider: ProviderGoogle, Code: googleErrorCode(err), Err: err}
	}
	out := Response{Translations: make([]string, len(res))}
	for i, t := range res {
		out.Translations[i] = t.Text
	}
	return out, nil
}

func googleErrorCode(err error) ErrorCode {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return codeForStatus(apiErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return CodeConnectivity
	}
	return CodeService
}
