package telemetry

import (
	"context"
	"time"

	"github.com/posterdash/backend/internal/domain/pos"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/posterdash/backend"

// GatewayInstruments records a span, a call counter and a latency histogram
// for every POS API call
type GatewayInstruments struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	posted   metric.Int64Counter
}

// NewGatewayInstruments creates the POS instruments from the given providers
func NewGatewayInstruments(tp trace.TracerProvider, mp metric.MeterProvider) (*GatewayInstruments, error) {
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("pos.calls",
		metric.WithDescription("POS API calls by method and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("pos.call.duration",
		metric.WithDescription("POS API call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20))
	if err != nil {
		return nil, err
	}
	posted, err := meter.Int64Counter("pos.transactions.created",
		metric.WithDescription("Finance transactions created in the POS by type"))
	if err != nil {
		return nil, err
	}

	return &GatewayInstruments{
		tracer:   tp.Tracer(instrumentationName),
		calls:    calls,
		duration: duration,
		posted:   posted,
	}, nil
}

// Wrap instruments gw for account. Its signature matches poster.Decorator.
func (in *GatewayInstruments) Wrap(gw pos.Gateway, account *pos.Account) pos.Gateway {
	attrs := []attribute.KeyValue{attribute.String("pos.account_id", account.ID.String())}
	return &instrumentedGateway{next: gw, in: in, attrs: attrs}
}

type instrumentedGateway struct {
	next  pos.Gateway
	in    *GatewayInstruments
	attrs []attribute.KeyValue
}

func (g *instrumentedGateway) start(ctx context.Context, method string, extra ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	ctx, span := g.in.tracer.Start(ctx, "poster."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(g.attrs...),
		trace.WithAttributes(extra...),
	)
	return ctx, span, time.Now()
}

func (g *instrumentedGateway) end(ctx context.Context, span trace.Span, method string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	attrs := metric.WithAttributes(attribute.String("method", method), attribute.String("outcome", outcome))
	g.in.calls.Add(ctx, 1, attrs)
	g.in.duration.Record(ctx, time.Since(started).Seconds(), attrs)
}

func (g *instrumentedGateway) GetClosedOrderTotals(ctx context.Context, date time.Time) (*pos.ClosedOrderTotals, error) {
	ctx, span, started := g.start(ctx, "getClosedOrderTotals", attribute.String("pos.date", date.Format(time.DateOnly)))
	totals, err := g.next.GetClosedOrderTotals(ctx, date)
	g.end(ctx, span, "getClosedOrderTotals", started, err)
	return totals, err
}

func (g *instrumentedGateway) CreateTransaction(ctx context.Context, txn pos.NewTransaction) (string, error) {
	ctx, span, started := g.start(ctx, "createTransaction", attribute.String("pos.transaction_type", txn.Type.String()))
	id, err := g.next.CreateTransaction(ctx, txn)
	if err == nil {
		span.SetAttributes(attribute.String("pos.transaction_id", id))
		g.in.posted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", txn.Type.String())))
	}
	g.end(ctx, span, "createTransaction", started, err)
	return id, err
}

func (g *instrumentedGateway) ListTransactions(ctx context.Context, date time.Time) ([]pos.Transaction, error) {
	ctx, span, started := g.start(ctx, "listTransactions", attribute.String("pos.date", date.Format(time.DateOnly)))
	txns, err := g.next.ListTransactions(ctx, date)
	if err == nil {
		span.SetAttributes(attribute.Int("pos.transactions", len(txns)))
	}
	g.end(ctx, span, "listTransactions", started, err)
	return txns, err
}

func (g *instrumentedGateway) Accounts(ctx context.Context) ([]pos.FinanceAccount, error) {
	ctx, span, started := g.start(ctx, "accounts")
	accounts, err := g.next.Accounts(ctx)
	g.end(ctx, span, "accounts", started, err)
	return accounts, err
}

func (g *instrumentedGateway) Categories(ctx context.Context) ([]pos.Category, error) {
	ctx, span, started := g.start(ctx, "categories")
	categories, err := g.next.Categories(ctx)
	g.end(ctx, span, "categories", started, err)
	return categories, err
}

var _ pos.Gateway = (*instrumentedGateway)(nil)
