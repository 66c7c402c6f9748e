// Package docs holds the Swagger annotations and the registered spec.
package docs

// Root godoc
// @Summary API status
// @Tags System
// @Produce json
// @Success 200 {object} APIResponse{data=RootResponse}
// @Router / [get]
func _() {}

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Probes the database, the cache and the LLM circuit. Returns 503 when a critical component is down.
// @Tags System
// @Produce json
// @Success 200 {object} APIResponse{data=HealthCheckResponse}
// @Failure 503 {object} APIResponse{data=HealthCheckResponse}
// @Router /health [get]
func _() {}

// ===============================
// AUTH
// ===============================

// Register godoc
// @Summary Register a new user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param registerRequest body services.RegisterRequest true "Registration details"
// @Success 201 {object} APIResponse{data=services.AuthResponse}
// @Failure 400 {object} ErrorResponse "Email, mot de passe et nom requis"
// @Failure 409 {object} ErrorResponse "Cet email est déjà utilisé"
// @Router /api/v1/auth/register [post]
func _() {}

// Login godoc
// @Summary Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param loginRequest body services.LoginRequest true "Login credentials"
// @Success 200 {object} APIResponse{data=services.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Email ou mot de passe incorrect"
// @Router /api/v1/auth/login [post]
func _() {}

// GoogleLogin godoc
// @Summary Sign in with Google
// @Description Accepts an authorization code or an ID token. Outside production the profile fields are trusted when verification fails.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param googleRequest body services.GoogleLoginRequest true "Google credentials"
// @Success 200 {object} APIResponse{data=services.AuthResponse}
// @Failure 400 {object} ErrorResponse "Email requis pour la connexion Google"
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/google [post]
func _() {}

// GoogleAuthURL godoc
// @Summary Google consent screen URL
// @Tags Authentication
// @Produce json
// @Success 200 {object} APIResponse{data=GoogleAuthURLResponse}
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/auth/google/url [get]
func _() {}

// ===============================
// USERS
// ===============================

// GetMe godoc
// @Summary Current user profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=models.UserProfile}
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me [get]
func _() {}

// UpdateMe godoc
// @Summary Update the current user profile
// @Description Only non-empty fields are written.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param updateRequest body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} APIResponse{data=models.UserProfile}
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users/me [put]
func _() {}

// UploadAvatar godoc
// @Summary Upload an avatar image
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image file"
// @Success 200 {object} APIResponse{data=models.UserProfile}
// @Failure 400 {object} ErrorResponse "Fichier avatar requis"
// @Failure 503 {object} ErrorResponse "Stockage d'images non configuré"
// @Router /api/v1/users/me/avatar [post]
func _() {}

// ===============================
// DETECTION
// ===============================

// Analyze godoc
// @Summary Classify a message
// @Description Records the detection and applies points, challenge progress and badges.
// @Tags Detection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param analyzeRequest body services.AnalyzeRequest true "Text to analyze"
// @Success 200 {object} APIResponse{data=services.AnalyzeResponse}
// @Failure 400 {object} ErrorResponse "Texte requis"
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/detection/analyze [post]
func _() {}

// Reformulate godoc
// @Summary Rewrite a message respectfully
// @Description Uses the LLM when configured and falls back to local substitutions. Passing detectionId stores the result and counts the reformulation.
// @Tags Detection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reformulateRequest body services.ReformulateRequest true "Text to reformulate"
// @Success 200 {object} APIResponse{data=detection.Reformulation}
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/detection/reformulate [post]
func _() {}

// DetectionHistory godoc
// @Summary Recent detections of the caller
// @Tags Detection
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum records (default 50)"
// @Success 200 {object} APIResponse{data=[]models.Detection}
// @Router /api/v1/detection/history [get]
func _() {}

// ===============================
// STATS & GAMIFICATION
// ===============================

// Dashboard godoc
// @Summary Dashboard counters
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=services.DashboardResponse}
// @Router /api/v1/stats/dashboard [get]
func _() {}

// Leaderboard godoc
// @Summary Users ranked by points
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 10)"
// @Success 200 {object} APIResponse{data=[]models.LeaderboardEntry}
// @Router /api/v1/gamification/leaderboard [get]
func _() {}

// Badges godoc
// @Summary Badge catalog with unlock state
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]models.BadgeStatus}
// @Router /api/v1/gamification/badges [get]
func _() {}

// CurrentChallenge godoc
// @Summary Active weekly challenge and the caller's progress
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=services.CurrentChallengeResponse}
// @Router /api/v1/gamification/challenge/current [get]
func _() {}

// ===============================
// GUARDIAN
// ===============================

// Children godoc
// @Summary Linked children with activity counters
// @Tags Guardian
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]services.ChildOverview}
// @Router /api/v1/guardian/children [get]
func _() {}

// LinkChild godoc
// @Summary Link a child account by its code
// @Tags Guardian
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param linkRequest body services.LinkChildRequest true "Child code"
// @Success 200 {object} APIResponse{data=services.LinkChildResponse}
// @Failure 400 {object} ErrorResponse "Code enfant requis"
// @Failure 404 {object} ErrorResponse "Code enfant invalide"
// @Router /api/v1/guardian/link [post]
func _() {}

// ChildStats godoc
// @Summary Detailed statistics of a linked child
// @Tags Guardian
// @Produce json
// @Security BearerAuth
// @Param childID path int true "Child user ID"
// @Success 200 {object} APIResponse{data=services.ChildStatsResponse}
// @Failure 404 {object} ErrorResponse "Enfant non trouvé"
// @Router /api/v1/guardian/child/{childID}/stats [get]
func _() {}

// LinkCode godoc
// @Summary The caller's own link code
// @Tags Guardian
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=services.LinkCodeResponse}
// @Router /api/v1/guardian/me/code [get]
func _() {}

// ===============================
// CHAT
// ===============================

// SendChatMessage godoc
// @Summary Talk to Mira
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chatRequest body services.ChatMessageRequest true "Message"
// @Success 200 {object} APIResponse{data=services.ChatExchange}
// @Failure 400 {object} ErrorResponse "Message requis"
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/chat/message [post]
func _() {}

// ChatHistory godoc
// @Summary Conversation history, oldest first
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum messages (default 50)"
// @Success 200 {object} APIResponse{data=[]models.ChatMessage}
// @Router /api/v1/chat/history [get]
func _() {}

// ClearChat godoc
// @Summary Delete the conversation
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=services.MessageResponse}
// @Router /api/v1/chat/clear [delete]
func _() {}

// ===============================
// REALTIME
// ===============================

// WebSocket godoc
// @Summary Realtime event stream
// @Description Upgrades to a WebSocket. Browsers pass the token as the token query parameter.
// @Tags Realtime
// @Security BearerAuth
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 101
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/ws [get]
func _() {}
