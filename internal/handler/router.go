package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/petpals/internal/middleware"
)

// DBPinger はヘルスチェックに必要なデータベース接続確認のインターフェース。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	AdminGate          middleware.AdminAuthorizer
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
	HTTPMetrics        middleware.StatusRecorderMetrics

	// トークン発行
	TokenIssuer TokenIssuer

	// ユーザー
	UserService UserServiceInterface
	UserGate    AdminChecker

	// ペット
	PetService PetServiceInterface

	// キャンペーン
	CampaignService CampaignServiceInterface

	// 里親申請
	AdoptionService AdoptionServiceInterface

	// 決済
	PaymentClient  PaymentClientInterface
	PaymentMetrics PaymentMetrics

	// 本人限定ルートの認可
	SelfGate SelfAuthorizer

	// ヘルスチェック
	DB DBPinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// ルートは認可要件ごとに3つのグループに分かれる:
//   - 公開ルート: トークン不要
//   - 認証ルート: 有効なベアラートークンが必要（本人限定の判定はハンドラー内で行う）
//   - 管理者ルート: 認証に加えてadminロールが必要
//
// 認証ミドルウェアは必ず管理者ミドルウェアの前段に置く。無効なトークンは
// ロール参照が発生する前に401で弾かれる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	authHandler := NewAuthHandler(deps.TokenIssuer)
	userHandler := NewUserHandler(deps.UserService, deps.UserGate)
	petHandler := NewPetHandler(deps.PetService, deps.SelfGate)
	campaignHandler := NewCampaignHandler(deps.CampaignService, deps.SelfGate)
	adoptionHandler := NewAdoptionHandler(deps.AdoptionService)
	paymentHandler := NewPaymentHandler(deps.PaymentClient, deps.PaymentMetrics)

	authMiddleware := middleware.NewAuthMiddleware(deps.TokenVerifier)
	adminMiddleware := middleware.NewAdminMiddleware(deps.AdminGate)

	// --- 公開ルート ---

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "PetPals server is running"})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.DB.PingContext(req.Context()); err != nil {
			deps.Logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/jwt", authHandler.IssueToken)
	r.Post("/users", userHandler.Register)
	r.Post("/create-payment-intent", paymentHandler.CreateIntent)

	r.Route("/pets", func(r chi.Router) {
		r.Get("/listing", petHandler.Listing)
		r.Get("/category/{category}", petHandler.ListByCategory)
		r.Get("/details/{id}", petHandler.Details)
		r.Get("/search", petHandler.Search)
		r.Post("/", petHandler.Create)
		r.Patch("/{id}", petHandler.Update)
		r.Delete("/{id}", petHandler.Delete)

		// 認証が必要なペットルート
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/userAdded/{email}", petHandler.ListByOwner)
			r.Patch("/status/{id}", petHandler.UpdateStatus)
		})

		// 管理者専用の全件一覧
		r.With(authMiddleware, adminMiddleware).Get("/", petHandler.ListAll)
	})

	r.Route("/donationCampaign", func(r chi.Router) {
		r.Get("/", campaignHandler.List)
		r.Get("/{id}", campaignHandler.Get)
		r.Delete("/{id}", campaignHandler.Delete)
		r.Delete("/history/{id}", campaignHandler.DeleteHistory)

		// 認証が必要なキャンペーンルート
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", campaignHandler.Create)
			r.Get("/user", campaignHandler.ListByOwner)
			r.Patch("/update/{id}", campaignHandler.Update)
			r.Patch("/pause/{id}", campaignHandler.UpdatePause)
			r.Post("/history", campaignHandler.RecordHistory)
			r.Get("/history/{id}", campaignHandler.HistoryByOwner)
			r.Get("/myDonation/{email}", campaignHandler.HistoryByDonor)

			// 寄付・返金は専用レート制限を追加で適用する
			r.With(deps.RateLimiter.DonationMiddleware()).Patch("/donate/{id}", campaignHandler.Donate)
			r.With(deps.RateLimiter.DonationMiddleware()).Patch("/refund/{id}", campaignHandler.Refund)
		})
	})

	r.Get("/donate/random", campaignHandler.Suggest)

	r.Route("/adoptionRequest", func(r chi.Router) {
		r.Post("/", adoptionHandler.Create)
		r.Get("/", adoptionHandler.ListByOwner)
		r.Patch("/status/{id}", adoptionHandler.UpdateStatus)
		r.Delete("/{id}", adoptionHandler.Delete)
	})

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/user/admin", userHandler.CheckAdmin)
	})

	// --- 管理者専用ルート ---

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Get("/users", userHandler.ListUsers)
		r.Patch("/users/{id}", userHandler.UpdateRole)
		r.Delete("/users/{id}", userHandler.DeleteUser)
	})

	return r
}
