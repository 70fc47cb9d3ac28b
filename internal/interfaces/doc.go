// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers define the narrow interface they need next to the code that uses
// it; this package only holds documentation and compile-time checks.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog CRUD and stats (internal/http/books.go)
//   - UserStore: Account records (internal/http/users.go, internal/auth/service.go)
//   - SettingStore: Key-value configuration (internal/http/settings.go)
//   - Pinger: Store health probes (internal/http/health.go)
//
// ## Domain Service Interfaces
//
//   - Lifecycle: Checkout, return and reservation flow (internal/http/activities.go)
//   - AvailabilityReader: Live copy counts (internal/http/books.go)
//   - FeedbackService: Ratings and contact messages (internal/http/submissions.go)
//   - AccountService: Password-bearing account creation (internal/http/users.go)
//
// ## Notification Interfaces
//
//   - Notifier: Transactional outbox used by the lifecycle (internal/lifecycle/manager.go)
//   - Emitter: Same-transaction notifications for feedback (internal/feedback/service.go)
//   - NotificationReader: Admin inbox (internal/http/submissions.go)
//   - NotificationDeliverer, NotificationPruner: Task handlers (internal/tasks/)
//   - Enqueuer: Task submission used by the scheduler (internal/scheduler/notifications.go)
//
// # Adding a New Notification Source
//
//  1. Add a NotificationType constant in internal/entities/notification.go
//
//  2. Write the state change and the notification in one transaction:
//
//     err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
//         if err := tx.Create(&record).Error; err != nil {
//             return err
//         }
//         return notifier.Enqueue(tx, entities.NotificationSomething, msg, &record.ID)
//     })
//
//  3. Call Flush after commit, or leave it to the scheduled delivery task
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/fines/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add the table to catalog.sql and CatalogSchema.Tables
//
//  4. Add compile-time check:
//
//     var _ http.FineStore = (*fines.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
