package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/settings"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/feedback"
	"github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/lifecycle"
	"github.com/mrlokans/librarian/internal/notify"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.UserStore = (*users.Repository)(nil)
var _ auth.UserStore = (*users.Repository)(nil)
var _ http.SettingStore = (*settings.Repository)(nil)
var _ http.SettingGetter = (*settings.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Domain Services
// =============================================================================

var _ http.Lifecycle = (*lifecycle.Manager)(nil)
var _ http.AvailabilityReader = (*lifecycle.Manager)(nil)
var _ http.FeedbackService = (*feedback.Service)(nil)
var _ http.AccountService = (*auth.Service)(nil)
var _ http.SubmissionArchiver = (*audit.Auditor)(nil)

// =============================================================================
// Notifications
// =============================================================================

// The emitter is both the outbox writer and the feedback store reader
var _ lifecycle.Notifier = (*notify.Emitter)(nil)
var _ feedback.Emitter = (*notify.Emitter)(nil)
var _ http.NotificationReader = (*notify.Emitter)(nil)
var _ tasks.NotificationDeliverer = (*notify.Emitter)(nil)
var _ tasks.NotificationPruner = (*notify.Emitter)(nil)

// Enqueuer implementations
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.InlineRunner)(nil)
