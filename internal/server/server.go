package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"nhatro/internal/apartment"
	apartmentdomain "nhatro/internal/apartment/domain"
	"nhatro/internal/auth"
	authdomain "nhatro/internal/auth/domain"
	"nhatro/internal/auth/session"
	"nhatro/internal/authorization"
	"nhatro/internal/billing"
	billingdomain "nhatro/internal/billing/domain"
	"nhatro/internal/config"
	"nhatro/internal/contract"
	contractdomain "nhatro/internal/contract/domain"
	"nhatro/internal/invoice"
	invoicedomain "nhatro/internal/invoice/domain"
	"nhatro/internal/logger"
	"nhatro/internal/meterreading"
	meterdomain "nhatro/internal/meterreading/domain"
	"nhatro/internal/providers/pdf"
	"nhatro/internal/settings"
	settingsdomain "nhatro/internal/settings/domain"
	"nhatro/internal/tenant"
	tenantdomain "nhatro/internal/tenant/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	session.Module,
	pdf.Module,
	apartment.Module,
	tenant.Module,
	contract.Module,
	settings.Module,
	meterreading.Module,
	invoice.Module,
	billing.Module,
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	authsvc      authdomain.Service
	sessions     *session.Manager
	authzSvc     authorization.Service
	apartmentSvc apartmentdomain.Service
	tenantSvc    tenantdomain.Service
	contractSvc  contractdomain.Service
	settingsSvc  settingsdomain.Service
	meterSvc     meterdomain.Service
	invoiceSvc   invoicedomain.Service
	billingSvc   billingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Authsvc      authdomain.Service
	Sessions     *session.Manager
	AuthzSvc     authorization.Service
	ApartmentSvc apartmentdomain.Service
	TenantSvc    tenantdomain.Service
	ContractSvc  contractdomain.Service
	SettingsSvc  settingsdomain.Service
	MeterSvc     meterdomain.Service
	InvoiceSvc   invoicedomain.Service
	BillingSvc   billingdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		authsvc:      p.Authsvc,
		sessions:     p.Sessions,
		authzSvc:     p.AuthzSvc,
		apartmentSvc: p.ApartmentSvc,
		tenantSvc:    p.TenantSvc,
		contractSvc:  p.ContractSvc,
		settingsSvc:  p.SettingsSvc,
		meterSvc:     p.MeterSvc,
		invoiceSvc:   p.InvoiceSvc,
		billingSvc:   p.BillingSvc,
	}
}

func RegisterRoutes(s *Server) {
	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerUIRoutes()
	s.registerFallback()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Users (admin only) --------
	api.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
	api.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	api.PATCH("/users/:id/role", s.authorize(authorization.ObjectUser, authorization.ActionUpdate), s.UpdateUserRole)
	api.DELETE("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionDelete), s.DeleteUser)

	// -------- Apartments --------
	api.GET("/apartments", s.authorize(authorization.ObjectApartment, authorization.ActionView), s.ListApartments)
	api.POST("/apartments", s.authorize(authorization.ObjectApartment, authorization.ActionCreate), s.CreateApartment)
	api.GET("/apartments/:id", s.authorize(authorization.ObjectApartment, authorization.ActionView), s.GetApartmentByID)
	api.PATCH("/apartments/:id", s.authorize(authorization.ObjectApartment, authorization.ActionUpdate), s.UpdateApartment)
	api.DELETE("/apartments/:id", s.authorize(authorization.ObjectApartment, authorization.ActionDelete), s.DeleteApartment)

	// -------- Tenants --------
	api.GET("/tenants", s.authorize(authorization.ObjectTenant, authorization.ActionView), s.ListTenants)
	api.POST("/tenants", s.authorize(authorization.ObjectTenant, authorization.ActionCreate), s.CreateTenant)
	api.GET("/tenants/:id", s.authorize(authorization.ObjectTenant, authorization.ActionView), s.GetTenantByID)
	api.PATCH("/tenants/:id", s.authorize(authorization.ObjectTenant, authorization.ActionUpdate), s.UpdateTenant)
	api.DELETE("/tenants/:id", s.authorize(authorization.ObjectTenant, authorization.ActionDelete), s.DeleteTenant)

	// -------- Contracts --------
	api.GET("/contracts", s.authorize(authorization.ObjectContract, authorization.ActionView), s.ListContracts)
	api.POST("/contracts", s.authorize(authorization.ObjectContract, authorization.ActionCreate), s.CreateContract)
	api.GET("/contracts/:id", s.authorize(authorization.ObjectContract, authorization.ActionView), s.GetContractByID)
	api.POST("/contracts/:id/end", s.authorize(authorization.ObjectContract, authorization.ActionUpdate), s.EndContract)
	api.DELETE("/contracts/:id", s.authorize(authorization.ObjectContract, authorization.ActionDelete), s.DeleteContract)

	// -------- Cost settings --------
	api.GET("/settings", s.authorize(authorization.ObjectSettings, authorization.ActionView), s.GetSettings)
	api.PUT("/settings", s.authorize(authorization.ObjectSettings, authorization.ActionUpdate), s.UpdateSettings)

	// -------- Meter readings --------
	api.GET("/meters/period", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.GetCurrentPeriod)
	api.GET("/meters/building", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.GetBuildingReadings)
	api.PUT("/meters/building", s.authorize(authorization.ObjectMeter, authorization.ActionUpdate), s.UpsertBuildingReading)
	api.GET("/meters/rooms", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.ListRoomReadings)
	api.PUT("/meters/rooms", s.authorize(authorization.ObjectMeter, authorization.ActionUpdate), s.UpsertRoomReading)
	api.POST("/meters/rollover", s.authorize(authorization.ObjectMeter, authorization.ActionMeterRollover), s.RolloverPeriod)

	// -------- Billing --------
	api.POST("/billing/preview", s.authorize(authorization.ObjectBilling, authorization.ActionView), s.PreviewInvoices)
	api.POST("/billing/generate", s.authorize(authorization.ObjectBilling, authorization.ActionBillingGenerate), s.GenerateInvoices)

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoiceByID)
	api.POST("/invoices/:id/pay", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoicePay), s.MarkInvoicePaid)
	api.POST("/invoices/:id/void", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceVoid), s.VoidInvoice)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.RenderInvoicePDF)
}

func (s *Server) registerUIRoutes() {
	r := s.engine.Group("/")

	r.GET("/", serveIndex)
	r.GET("/login", serveIndex)
	r.GET("/apartments", serveIndex)
	r.GET("/tenants", serveIndex)
	r.GET("/contracts", serveIndex)
	r.GET("/meters", serveIndex)
	r.GET("/invoices", serveIndex)
	r.GET("/settings", serveIndex)
	r.GET("/users", serveIndex)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		// static assets (vite)
		if fileExists("./public", c.Request.URL.Path) {
			c.File("./public" + c.Request.URL.Path)
			return
		}

		// SPA fallback
		c.File("./public/index.html")
	})
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || clean == ".." {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
