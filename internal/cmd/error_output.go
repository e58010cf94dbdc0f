package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/output"
	"github.com/salmonumbrella/outline-cli/internal/roam"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"type":     "error",
		"category": "system",
	}

	var validationErr outline.ValidationError
	var notFoundErr outline.NotFoundError
	var depthErr outline.DepthJumpError
	var pathErr *fs.PathError
	var authErr roam.AuthenticationError
	var rateErr roam.RateLimitError
	var pageErr roam.PageNotFoundError

	switch {
	case errors.As(err, &depthErr):
		errMap["type"] = "depth_jump"
		errMap["category"] = "user"
		errMap["key"] = depthErr.Key
		errMap["indent_level"] = depthErr.Depth
		errMap["max_indent_level"] = depthErr.MaxDepth
	case errors.As(err, &notFoundErr):
		errMap["type"] = "not_found"
		errMap["category"] = "user"
		errMap["key"] = notFoundErr.Key
	case errors.As(err, &validationErr):
		errMap["type"] = "validation"
		errMap["category"] = "user"
	case errors.As(err, &pageErr):
		errMap["type"] = "not_found"
		errMap["category"] = "user"
		errMap["page"] = pageErr.Title
	case errors.As(err, &authErr):
		errMap["type"] = "auth"
		errMap["category"] = "auth"
	case errors.As(err, &rateErr):
		errMap["type"] = "rate_limit"
		errMap["category"] = "api"
	case errors.As(err, &pathErr):
		errMap["type"] = "file"
		errMap["category"] = "user"
	}

	return map[string]interface{}{"error": errMap}
}
