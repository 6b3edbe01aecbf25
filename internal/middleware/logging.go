package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs one line per finance RPC with the calling org,
// user and role. Rejected requests (bad input, missing rates, payout rule
// violations) log at warn; internal failures and non-Connect errors at error.
// It reads the principal from the context, so install it after RequireAuth.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []slog.Attr{
				slog.String("procedure", req.Spec().Procedure),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if p, ok := GetPrincipal(ctx); ok {
				attrs = append(attrs,
					slog.String("org_id", p.OrgID),
					slog.String("user_id", p.UserID),
					slog.String("role", string(p.Role)),
				)
			}

			level, msg := rpcOutcome(err)
			if err != nil {
				attrs = append(attrs, slog.String("code", connect.CodeOf(err).String()), slog.String("error", err.Error()))
			}
			slog.LogAttrs(ctx, level, msg, attrs...)
			return resp, err
		}
	}
}

func rpcOutcome(err error) (slog.Level, string) {
	if err == nil {
		return slog.LevelInfo, "RPC ok"
	}
	switch connect.CodeOf(err) {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return slog.LevelError, "RPC failed"
	default:
		return slog.LevelWarn, "RPC rejected"
	}
}
