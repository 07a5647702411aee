package handler

import (
	"github.com/hitoshi/focusflow/internal/auth"
	"github.com/hitoshi/focusflow/internal/billing"
	"github.com/hitoshi/focusflow/internal/entitlement"
	"github.com/hitoshi/focusflow/internal/insight"
	"github.com/hitoshi/focusflow/internal/metrics"
	"github.com/hitoshi/focusflow/internal/session"
	"github.com/hitoshi/focusflow/internal/stats"
)

// サービス層の具象型がハンドラーの要求するインターフェースを
// 満たすことのコンパイル時チェック。アダプタ層を挟まず、
// サービスをそのままRouterDepsに渡せることを保証する。

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ SessionServiceInterface = (*session.Recorder)(nil)
var _ StatsServiceInterface = (*stats.Reader)(nil)
var _ ProfileServiceInterface = (*entitlement.Store)(nil)
var _ EntitlementChecker = (*entitlement.Store)(nil)
var _ BillingServiceInterface = (*billing.CheckoutService)(nil)
var _ WebhookProcessor = (*billing.Reconciler)(nil)
var _ InsightServiceInterface = (*insight.Service)(nil)
var _ SessionMetrics = (*metrics.Collector)(nil)
var _ WebhookMetrics = (*metrics.Collector)(nil)
var _ InsightMetrics = (*metrics.Collector)(nil)
