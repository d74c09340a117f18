package tracing

import (
	"fmt"
	"net/http"

	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	"github.com/openzipkin/zipkin-go/reporter"
	httpreporter "github.com/openzipkin/zipkin-go/reporter/http"
)

// Tracing - серверный middleware и клиент исходящих запросов с трассировкой.
type Tracing struct {
	Middleware func(http.Handler) http.Handler
	Client     *http.Client
	reporter   reporter.Reporter
}

// New подключается к Zipkin по адресу host:port. Пустой адрес отключает
// трассировку: middleware пропускает запросы как есть.
func New(address, serviceName, hostPort string) (*Tracing, error) {
	if address == "" {
		return &Tracing{
			Middleware: func(next http.Handler) http.Handler { return next },
			Client:     http.DefaultClient,
		}, nil
	}

	rep := httpreporter.NewReporter("http://" + address + "/api/v2/spans")

	endpoint, err := zipkin.NewEndpoint(serviceName, hostPort)
	if err != nil {
		_ = rep.Close()
		return nil, fmt.Errorf("unable to create local endpoint: %w", err)
	}

	tracer, err := zipkin.NewTracer(rep, zipkin.WithLocalEndpoint(endpoint))
	if err != nil {
		_ = rep.Close()
		return nil, fmt.Errorf("unable to create tracer: %w", err)
	}

	client, err := zipkinhttp.NewClient(tracer, zipkinhttp.ClientTrace(true))
	if err != nil {
		_ = rep.Close()
		return nil, fmt.Errorf("unable to create client: %w", err)
	}

	return &Tracing{
		Middleware: zipkinhttp.NewServerMiddleware(tracer, zipkinhttp.TagResponseSize(true)),
		Client:     client.Client,
		reporter:   rep,
	}, nil
}

// Close отправляет накопленные спаны.
func (t *Tracing) Close() error {
	if t.reporter == nil {
		return nil
	}
	return t.reporter.Close()
}
