package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/felicity-events/felicity-api/docs"
	v1 "github.com/felicity-events/felicity-api/internal/api/handler/v1"
	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/config"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/realtime"
	"github.com/felicity-events/felicity-api/internal/repository"
	"github.com/felicity-events/felicity-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	Hub        *realtime.Hub
	Auth       *service.AuthService
	Reconciler *service.StatusReconciler

	authenticator *middleware.Authenticator
	uploads       *v1.Uploads
}

type handlers struct {
	auth       *v1.AuthHandler
	user       *v1.UserHandler
	event      *v1.EventHandler
	reg        *v1.RegistrationHandler
	team       *v1.TeamHandler
	attendance *v1.AttendanceHandler
	forum      *v1.ForumHandler
	feedback   *v1.FeedbackHandler
	admin      *v1.AdminHandler
	resets     *v1.PasswordResetHandler
	chat       *v1.ChatHandler
}

// hubBroadcaster lets the services be built before the hub that depends on them.
type hubBroadcaster struct {
	hub *realtime.Hub
}

func (b *hubBroadcaster) Broadcast(room, frameType string, data interface{}) {
	b.hub.Broadcast(room, frameType, data)
}

// NewServer wires services and handlers on top of repos. The caller runs
// s.Hub and s.Reconciler.
func NewServer(conf *config.AppConfig, repos *repository.Set, dispatcher notify.Dispatcher, relay realtime.Relay) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:        conf,
		Router:        engine,
		authenticator: middleware.NewAuthenticator(conf.API.JWTSigningKey),
		uploads:       v1.NewUploads(conf.API.UploadDir),
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(repos, dispatcher, relay))

	return s
}

func (s *Server) initHandlers(repos *repository.Set, dispatcher notify.Dispatcher, relay realtime.Relay) handlers {
	broadcaster := &hubBroadcaster{}

	s.Auth = service.NewAuthService(repos.Users, repos.Organizers, s.Config.Campus.EmailDomains)
	users := service.NewUserService(repos.Users, repos.Organizers, repos.Events)
	admin := service.NewAdminService(repos.Users, repos.Organizers, repos.Events, repos.Registrations)
	resets := service.NewPasswordResetService(repos.Resets, repos.Organizers)
	events := service.NewEventService(repos.Events, repos.Registrations, repos.Users, repos.Organizers, repos.Attendance, dispatcher)
	registrations := service.NewRegistrationService(repos.Registrations, repos.Events, repos.Users, dispatcher)
	teams := service.NewTeamService(repos.Teams, repos.Events, repos.Users, repos.Registrations, dispatcher)
	attendance := service.NewAttendanceService(repos.Attendance, repos.Registrations, repos.Events, repos.Users, broadcaster)
	forum := service.NewForumService(repos.Forum, repos.Events, repos.Registrations, repos.Users, repos.Organizers, broadcaster)
	feedback := service.NewFeedbackService(repos.Feedback, repos.Events, repos.Registrations, s.Config.API.FeedbackSecret)

	s.Hub = realtime.NewHub(forum, attendance, relay)
	broadcaster.hub = s.Hub
	s.Reconciler = service.NewStatusReconciler(repos.Events, s.Config.Reconciler.Interval)

	return handlers{
		auth:       v1.NewAuthHandler(s.Config.API, s.Auth),
		user:       v1.NewUserHandler(users),
		event:      v1.NewEventHandler(events),
		reg:        v1.NewRegistrationHandler(registrations, s.uploads),
		team:       v1.NewTeamHandler(teams),
		attendance: v1.NewAttendanceHandler(attendance),
		forum:      v1.NewForumHandler(forum),
		feedback:   v1.NewFeedbackHandler(feedback),
		admin:      v1.NewAdminHandler(admin),
		resets:     v1.NewPasswordResetHandler(resets),
		chat:       v1.NewChatHandler(s.authenticator, s.Hub, s.Config.API.AllowedCORSDomains),
	}
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	var (
		verify      = s.authenticator.VerifyJWT()
		participant = middleware.RequireRoles(domain.RoleParticipant)
		organizer   = middleware.RequireRoles(domain.RoleOrganizer)
		admin       = middleware.RequireRoles(domain.RoleAdmin)
		managers    = middleware.RequireRoles(domain.RoleOrganizer, domain.RoleAdmin)
	)

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/register", h.auth.HandleRegister)
		public.POST("/auth/login", h.auth.HandleLogin)
		public.POST("/auth/organizer/login", h.auth.HandleOrganizerLogin)
		public.GET("/organizers/:id", h.user.HandleOrganizerProfile)
		public.GET("/events/trending", h.event.HandleTrending)
		public.POST("/events/:id/view", h.event.HandleRecordView)
	}

	browse := s.Router.Group(basePath, s.authenticator.OptionalJWT())
	{
		browse.GET("/events", h.event.HandleListEvents)
		browse.GET("/events/:id", h.event.HandleGetEvent)
	}

	authed := s.Router.Group(basePath, verify)
	{
		authed.GET("/auth/me", h.auth.HandleMe)
		authed.POST("/auth/logout", h.auth.HandleLogout)
		authed.POST("/users/change-password", middleware.RequireRoles(domain.RoleParticipant, domain.RoleOrganizer), h.user.HandleChangePassword)
		authed.GET("/users/organizers", h.user.HandleListOrganizers)
		authed.GET("/tickets/:ticketId", h.reg.HandleTicket)
	}

	users := s.Router.Group(basePath+"/users", verify, participant)
	{
		users.POST("/onboarding", h.user.HandleOnboarding)
		users.PUT("/profile", h.user.HandleUpdateProfile)
	}

	events := s.Router.Group(basePath+"/events", verify, managers)
	{
		events.POST("", organizer, h.event.HandleCreateEvent)
		events.PUT("/:id", h.event.HandleUpdateEvent)
		events.PATCH("/:id", h.event.HandleUpdateEvent)
		events.PUT("/:id/form", h.event.HandleReplaceForm)
		events.PATCH("/:id/status", h.event.HandleChangeStatus)
		events.DELETE("/:id", h.event.HandleDeleteEvent)
		events.GET("/:id/participants", h.event.HandleParticipants)
		events.GET("/:id/export", h.event.HandleExportParticipants)
	}

	organizers := s.Router.Group(basePath+"/organizer", verify, organizer)
	{
		organizers.GET("/events", h.event.HandleOrganizerEvents)
		organizers.GET("/analytics", h.event.HandleAnalytics)
		organizers.PUT("/profile", h.user.HandleUpdateOrganizer)
	}

	registrations := s.Router.Group(basePath+"/registrations", verify)
	{
		registrations.POST("", participant, h.reg.HandleRegister)
		registrations.GET("/my", participant, h.reg.HandleMyRegistrations)
		registrations.DELETE("/:id", participant, h.reg.HandleCancel)
		registrations.GET("/event/:eventId/pending-payments", managers, h.reg.HandlePendingPayments)
		registrations.PATCH("/:id/payment-review", managers, h.reg.HandleReviewPayment)
	}

	teams := s.Router.Group(basePath+"/teams", verify)
	{
		teams.POST("", participant, h.team.HandleCreateTeam)
		teams.GET("/my", participant, h.team.HandleMyTeams)
		teams.GET("/join/:inviteCode", participant, h.team.HandlePreview)
		teams.POST("/join", participant, h.team.HandleJoin)
		teams.GET("/:id", h.team.HandleGetTeam)
		teams.POST("/:id/invite", participant, h.team.HandleInvite)
		teams.POST("/:id/respond", participant, h.team.HandleRespond)
		teams.DELETE("/:id/leave", participant, h.team.HandleLeave)
		teams.POST("/:id/reconcile", h.team.HandleReconcile)
	}

	attendance := s.Router.Group(basePath+"/attendance", verify, managers)
	{
		attendance.POST("/scan", h.attendance.HandleScan)
		attendance.POST("/manual", h.attendance.HandleManual)
		attendance.GET("/:eventId", h.attendance.HandleSummary)
		attendance.GET("/:eventId/export", h.attendance.HandleExport)
		attendance.DELETE("/:eventId/:attendanceId", h.attendance.HandleRevert)
	}

	forum := s.Router.Group(basePath+"/forum/:eventId", verify)
	{
		forum.GET("/messages", h.forum.HandleMessages)
		forum.POST("/messages", h.forum.HandlePostMessage)
		forum.POST("/announce", organizer, h.forum.HandleAnnounce)
		forum.PATCH("/messages/:msgId/pin", organizer, h.forum.HandleTogglePin)
		forum.DELETE("/messages/:msgId", organizer, h.forum.HandleDeleteMessage)
		forum.POST("/messages/:msgId/react", h.forum.HandleReact)
	}

	feedback := s.Router.Group(basePath+"/feedback/:eventId", verify)
	{
		feedback.POST("", participant, h.feedback.HandleSubmit)
		feedback.GET("", managers, h.feedback.HandleSummary)
		feedback.GET("/check", participant, h.feedback.HandleCheck)
	}

	admins := s.Router.Group(basePath+"/admin", verify, admin)
	{
		admins.POST("/organizers", h.admin.HandleCreateOrganizer)
		admins.GET("/organizers", h.admin.HandleListOrganizers)
		admins.PATCH("/organizers/:id/status", h.admin.HandleOrganizerStatus)
		admins.DELETE("/organizers/:id", h.admin.HandleDeleteOrganizer)
		admins.GET("/users", h.admin.HandleSearchUsers)
		admins.PATCH("/users/:id/status", h.admin.HandleUserStatus)
		admins.GET("/stats", h.admin.HandleStats)
	}

	resets := s.Router.Group(basePath+"/password-resets", verify)
	{
		resets.POST("", organizer, h.resets.HandleRequestReset)
		resets.GET("/my", organizer, h.resets.HandleMyResets)
		resets.GET("", admin, h.resets.HandleListResets)
		resets.PATCH("/:id/approve", admin, h.resets.HandleApprove)
		resets.PATCH("/:id/reject", admin, h.resets.HandleReject)
		resets.POST("/:id/acknowledge", admin, h.resets.HandleAcknowledge)
	}

	s.Router.GET("/ws", h.chat.HandleWebSocket)
	s.Router.Static("/uploads", s.uploads.Dir())
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Felicity API"
	docs.SwaggerInfo.Description = "Campus event management: events, registrations, teams, attendance and forums."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
