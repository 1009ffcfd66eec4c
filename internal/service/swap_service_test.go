package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/notify"
	"github.com/Leganyst/slotswap-platform/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	// :memory: живёт в рамках одного соединения.
	sqlDB.SetMaxOpenConns(1)

	// Minimal schema for the swap core (sqlite-friendly).
	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE slots (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE swap_requests (
			id TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL,
			requester_slot_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_slot_id TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME,
			resolved_at DATETIME
		);`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			created_at DATETIME,
			user_id TEXT,
			swap_request_id TEXT,
			payload TEXT
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

type capturedEvent struct {
	UserID string
	Name   notify.EventName
	Data   notify.SwapEvent
}

type captureNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (n *captureNotifier) Publish(userID string, event notify.EventName, data notify.SwapEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, capturedEvent{UserID: userID, Name: event, Data: data})
}

func (n *captureNotifier) last(t *testing.T) capturedEvent {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		t.Fatalf("no events published")
	}
	return n.events[len(n.events)-1]
}

func seedUser(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	u := model.User{ID: id, Email: name + "@example.com", Name: name, PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return id
}

func seedSlot(t *testing.T, db *gorm.DB, owner uuid.UUID, title string, status model.SlotStatus) uuid.UUID {
	t.Helper()
	id := uuid.New()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := model.Slot{
		ID:       id,
		OwnerID:  owner,
		Title:    title,
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
		Status:   status,
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed slot %s: %v", title, err)
	}
	return id
}

func loadSlot(t *testing.T, db *gorm.DB, id uuid.UUID) model.Slot {
	t.Helper()
	var s model.Slot
	if err := db.First(&s, "id = ?", id.String()).Error; err != nil {
		t.Fatalf("load slot %s: %v", id, err)
	}
	return s
}

func errCode(err error) apperr.Code {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func newSwapService(db *gorm.DB, n notify.Notifier) *SwapService {
	return NewSwapService(db, repository.NewGormSwapRequestRepository(db), n)
}

func TestProposeSwap_OK(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := newSwapService(db, notifier)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "Morning shift", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "Evening shift", model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String())
	if err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}
	if req.Status != model.SwapRequestStatusPending {
		t.Fatalf("request status = %s, want PENDING", req.Status)
	}
	if req.RequesterID != u1 || req.TargetID != u2 {
		t.Fatalf("request parties = %s/%s, want %s/%s", req.RequesterID, req.TargetID, u1, u2)
	}

	if got := loadSlot(t, db, slotA).Status; got != model.SlotStatusSwapPending {
		t.Fatalf("slot A status = %s, want SWAP_PENDING", got)
	}
	if got := loadSlot(t, db, slotB).Status; got != model.SlotStatusSwapPending {
		t.Fatalf("slot B status = %s, want SWAP_PENDING", got)
	}

	// Аудит внутри той же транзакции.
	var auditCount int64
	if err := db.Model(&model.Event{}).
		Where("swap_request_id = ? AND event_type = ?", req.ID.String(), model.EventTypeSwapRequestCreated).
		Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("audit events = %d, want 1", auditCount)
	}

	// Уведомление адресовано владельцу целевого слота.
	ev := notifier.last(t)
	if ev.UserID != u2.String() {
		t.Fatalf("event addressed to %s, want %s", ev.UserID, u2)
	}
	if ev.Name != notify.EventSwapRequestCreated {
		t.Fatalf("event name = %s, want swap-request-created", ev.Name)
	}
	if ev.Data.RequesterSlotTitle != "Morning shift" || ev.Data.TargetSlotTitle != "Evening shift" {
		t.Fatalf("event titles = %q/%q", ev.Data.RequesterSlotTitle, ev.Data.TargetSlotTitle)
	}
}

func TestProposeSwap_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotA2 := seedSlot(t, db, u1, "A2", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)
	slotBusy := seedSlot(t, db, u2, "Busy", model.SlotStatusBusy)

	tests := []struct {
		name      string
		requester string
		offered   string
		target    string
		wantCode  apperr.Code
	}{
		{"same slot", u1.String(), slotA.String(), slotA.String(), apperr.CodeSelfSwap},
		{"same owner", u1.String(), slotA.String(), slotA2.String(), apperr.CodeSelfSwap},
		{"not owner", u1.String(), slotB.String(), slotA.String(), apperr.CodeNotOwner},
		{"target busy", u1.String(), slotA.String(), slotBusy.String(), apperr.CodeInvalidSlotState},
		{"offered missing", u1.String(), uuid.NewString(), slotB.String(), apperr.CodeNotFound},
		{"target missing", u1.String(), slotA.String(), uuid.NewString(), apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProposeSwap(context.Background(), tt.requester, tt.offered, tt.target)
			if errCode(err) != tt.wantCode {
				t.Fatalf("error code = %q (%v), want %q", errCode(err), err, tt.wantCode)
			}
		})
	}

	// Ни одной заявки не создано, статусы не тронуты.
	var reqCount int64
	if err := db.Model(&model.SwapRequest{}).Count(&reqCount).Error; err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if reqCount != 0 {
		t.Fatalf("requests = %d, want 0", reqCount)
	}
	if got := loadSlot(t, db, slotA).Status; got != model.SlotStatusSwappable {
		t.Fatalf("slot A status = %s, want SWAPPABLE", got)
	}
}

func TestProposeSwap_PendingSlotRejectsSecondProposal(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	u3 := seedUser(t, db, "carol")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)
	slotC := seedSlot(t, db, u3, "C", model.SlotStatusSwappable)

	if _, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String()); err != nil {
		t.Fatalf("first ProposeSwap: %v", err)
	}

	_, err := svc.ProposeSwap(context.Background(), u3.String(), slotC.String(), slotB.String())
	if errCode(err) != apperr.CodeInvalidSlotState {
		t.Fatalf("second proposal error = %v, want INVALID_SLOT_STATE", err)
	}
	if got := loadSlot(t, db, slotC).Status; got != model.SlotStatusSwappable {
		t.Fatalf("slot C status = %s, want SWAPPABLE (untouched)", got)
	}
}

func TestRespond_AcceptExchangesOwners(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := newSwapService(db, notifier)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String())
	if err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}

	resolved, err := svc.Respond(context.Background(), req.ID.String(), u2.String(), true)
	if err != nil {
		t.Fatalf("Respond accept: %v", err)
	}
	if resolved.Status != model.SwapRequestStatusAccepted {
		t.Fatalf("request status = %s, want ACCEPTED", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("resolved_at is nil")
	}

	a := loadSlot(t, db, slotA)
	b := loadSlot(t, db, slotB)
	if a.OwnerID != u2 || a.Status != model.SlotStatusBusy {
		t.Fatalf("slot A owner/status = %s/%s, want %s/BUSY", a.OwnerID, a.Status, u2)
	}
	if b.OwnerID != u1 || b.Status != model.SlotStatusBusy {
		t.Fatalf("slot B owner/status = %s/%s, want %s/BUSY", b.OwnerID, b.Status, u1)
	}

	ev := notifier.last(t)
	if ev.Name != notify.EventSwapRequestAccepted || ev.UserID != u1.String() {
		t.Fatalf("event = %s to %s, want swap-request-accepted to %s", ev.Name, ev.UserID, u1)
	}
}

func TestRespond_RejectResetsSlots(t *testing.T) {
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := newSwapService(db, notifier)

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String())
	if err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}

	resolved, err := svc.Respond(context.Background(), req.ID.String(), u2.String(), false)
	if err != nil {
		t.Fatalf("Respond reject: %v", err)
	}
	if resolved.Status != model.SwapRequestStatusRejected {
		t.Fatalf("request status = %s, want REJECTED", resolved.Status)
	}

	a := loadSlot(t, db, slotA)
	b := loadSlot(t, db, slotB)
	if a.OwnerID != u1 || a.Status != model.SlotStatusSwappable {
		t.Fatalf("slot A owner/status = %s/%s, want unchanged owner, SWAPPABLE", a.OwnerID, a.Status)
	}
	if b.OwnerID != u2 || b.Status != model.SlotStatusSwappable {
		t.Fatalf("slot B owner/status = %s/%s, want unchanged owner, SWAPPABLE", b.OwnerID, b.Status)
	}

	ev := notifier.last(t)
	if ev.Name != notify.EventSwapRequestRejected || ev.UserID != u1.String() {
		t.Fatalf("event = %s to %s, want swap-request-rejected to %s", ev.Name, ev.UserID, u1)
	}

	// Полный сброс: ту же пару можно предложить снова.
	if _, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String()); err != nil {
		t.Fatalf("re-propose after reject: %v", err)
	}
}

func TestRespond_OnlyTargetMayRespond(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	u3 := seedUser(t, db, "carol")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String())
	if err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}

	for _, responder := range []uuid.UUID{u1, u3} {
		if _, err := svc.Respond(context.Background(), req.ID.String(), responder.String(), true); errCode(err) != apperr.CodeForbidden {
			t.Fatalf("responder %s: error = %v, want FORBIDDEN", responder, err)
		}
	}

	if got := loadSlot(t, db, slotA).Status; got != model.SlotStatusSwapPending {
		t.Fatalf("slot A status = %s, want SWAP_PENDING (unchanged)", got)
	}
}

func TestRespond_SecondCallFails(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)

	req, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String())
	if err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}
	if _, err := svc.Respond(context.Background(), req.ID.String(), u2.String(), true); err != nil {
		t.Fatalf("first Respond: %v", err)
	}

	_, err = svc.Respond(context.Background(), req.ID.String(), u2.String(), false)
	if errCode(err) != apperr.CodeRequestNotPending {
		t.Fatalf("second Respond error = %v, want REQUEST_NOT_PENDING", err)
	}

	// Второй вызов ничего не откатил.
	a := loadSlot(t, db, slotA)
	if a.OwnerID != u2 || a.Status != model.SlotStatusBusy {
		t.Fatalf("slot A owner/status = %s/%s after double respond", a.OwnerID, a.Status)
	}
}

func TestSetSlotStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slot := seedSlot(t, db, u1, "A", model.SlotStatusBusy)

	updated, err := svc.SetSlotStatus(context.Background(), slot.String(), u1.String(), model.SlotStatusSwappable)
	if err != nil {
		t.Fatalf("SetSlotStatus: %v", err)
	}
	if updated.Status != model.SlotStatusSwappable {
		t.Fatalf("status = %s, want SWAPPABLE", updated.Status)
	}

	if _, err := svc.SetSlotStatus(context.Background(), slot.String(), u2.String(), model.SlotStatusBusy); errCode(err) != apperr.CodeNotOwner {
		t.Fatalf("foreign toggle error = %v, want NOT_OWNER", err)
	}
	if _, err := svc.SetSlotStatus(context.Background(), slot.String(), u1.String(), model.SlotStatusSwapPending); errCode(err) != apperr.CodeInvalidArgument {
		t.Fatalf("direct SWAP_PENDING error = %v, want INVALID_ARGUMENT", err)
	}

	// Слот в активном обмене заблокирован.
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)
	if _, err := svc.ProposeSwap(context.Background(), u1.String(), slot.String(), slotB.String()); err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}
	if _, err := svc.SetSlotStatus(context.Background(), slot.String(), u1.String(), model.SlotStatusBusy); errCode(err) != apperr.CodeSlotLocked {
		t.Fatalf("locked toggle error = %v, want SLOT_LOCKED", err)
	}
}

func TestDeleteSlot(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	u1 := seedUser(t, db, "alice")
	u2 := seedUser(t, db, "bob")
	slotA := seedSlot(t, db, u1, "A", model.SlotStatusSwappable)
	slotB := seedSlot(t, db, u2, "B", model.SlotStatusSwappable)

	if _, err := svc.ProposeSwap(context.Background(), u1.String(), slotA.String(), slotB.String()); err != nil {
		t.Fatalf("ProposeSwap: %v", err)
	}
	if err := svc.DeleteSlot(context.Background(), slotA.String(), u1.String()); errCode(err) != apperr.CodeSlotLocked {
		t.Fatalf("delete pending slot error = %v, want SLOT_LOCKED", err)
	}

	free := seedSlot(t, db, u1, "Free", model.SlotStatusBusy)
	if err := svc.DeleteSlot(context.Background(), free.String(), u2.String()); errCode(err) != apperr.CodeNotOwner {
		t.Fatalf("foreign delete error = %v, want NOT_OWNER", err)
	}
	if err := svc.DeleteSlot(context.Background(), free.String(), u1.String()); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}

	var count int64
	if err := db.Model(&model.Slot{}).Where("id = ?", free.String()).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("slot not deleted")
	}
}

func TestSlotGoneOrLocked(t *testing.T) {
	db := newTestDB(t)

	u1 := seedUser(t, db, "alice")
	pending := seedSlot(t, db, u1, "P", model.SlotStatusSwapPending)

	if err := slotGoneOrLocked(db, pending); errCode(err) != apperr.CodeSlotLocked {
		t.Fatalf("pending slot error = %v, want SLOT_LOCKED", err)
	}
	// Конкурентно удалённый слот — NOT_FOUND, а не SLOT_LOCKED.
	if err := slotGoneOrLocked(db, uuid.New()); errCode(err) != apperr.CodeNotFound {
		t.Fatalf("missing slot error = %v, want NOT_FOUND", err)
	}
}

func TestProposeSwap_ConcurrentRacesOnOneTarget(t *testing.T) {
	db := newTestDB(t)
	svc := newSwapService(db, notify.NopNotifier{})

	target := seedUser(t, db, "target")
	targetSlot := seedSlot(t, db, target, "Hot slot", model.SlotStatusSwappable)

	const n = 8
	requesters := make([]uuid.UUID, n)
	offered := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		requesters[i] = seedUser(t, db, "user"+uuid.NewString()[:8])
		offered[i] = seedSlot(t, db, requesters[i], "offer", model.SlotStatusSwappable)
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.ProposeSwap(context.Background(), requesters[i].String(), offered[i].String(), targetSlot.String())
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errCode(err) == apperr.CodeInvalidSlotState:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflict != n-1 {
		t.Fatalf("ok=%d conflict=%d, want 1/%d", ok, conflict, n-1)
	}

	var pending int64
	if err := db.Model(&model.SwapRequest{}).
		Where("status = ?", model.SwapRequestStatusPending).
		Count(&pending).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending requests = %d, want 1", pending)
	}
}
