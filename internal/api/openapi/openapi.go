// Пакет openapi — встроенный OpenAPI-контракт maker-checker BFF.
// Документ загружается и проверяется при старте, отдаётся по /api/v1/openapi.json
// и используется для валидации входящих запросов.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/errors"
)

//go:embed openapi.yaml
var specYAML []byte

// Document — загруженный и проверенный контракт.
type Document struct {
	doc    *openapi3.T
	router routers.Router
	json   []byte
	logger *slog.Logger
}

// Load разбирает встроенный контракт и проверяет его.
func Load(logger *slog.Logger) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("проверка OpenAPI: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("маршрутизатор OpenAPI: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация OpenAPI: %w", err)
	}

	return &Document{
		doc:    doc,
		router: router,
		json:   data,
		logger: logger.With(slog.String("component", "openapi")),
	}, nil
}

// ServeSpec — GET /api/v1/openapi.json.
func (d *Document) ServeSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.json)
}

// ValidationMiddleware проверяет параметры и тело запроса по контракту.
// Несоответствие — 400 INVALID_REQUEST. Пути вне контракта пропускаются
// дальше: на них ответит роутер.
func (d *Document) ValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := d.router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					MultiError:         false,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				d.logger.Debug("Запрос не соответствует контракту",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.InvalidRequest(w, validationMessage(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validationMessage сокращает ошибку валидации до понятного клиенту текста.
func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.Parameter != nil:
			return fmt.Sprintf("некорректный параметр %s: %s", reqErr.Parameter.Name, reqErr.Reason)
		case reqErr.RequestBody != nil:
			return "тело запроса не соответствует контракту: " + reqErr.Error()
		}
		return reqErr.Error()
	}
	return err.Error()
}
