// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dwella/rent-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	// Now stamps CreatedAt and UpdatedAt. Replace it in tests for
	// deterministic ordering.
	Now func() time.Time

	state memoryState
}

type rentKey struct {
	TenantID ledger.TenantID
	Period   string
}

type memoryState struct {
	properties map[ledger.PropertyID]ledger.Property
	tenants    map[ledger.TenantID]ledger.Tenant
	activities []ledger.Activity // insertion order
	rent       map[rentKey]ledger.ActivityID
}

func NewMemory() *Memory {
	return &Memory{
		Now: time.Now,
		state: memoryState{
			properties: make(map[ledger.PropertyID]ledger.Property),
			tenants:    make(map[ledger.TenantID]ledger.Tenant),
			rent:       make(map[rentKey]ledger.ActivityID),
		},
	}
}

func (m *Memory) InsertProperty(_ context.Context, p ledger.Property) (ledger.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertProperty(p, m.Now())
}

func (m *Memory) UpdateProperty(_ context.Context, p ledger.Property) (ledger.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateProperty(p, m.Now())
}

func (m *Memory) DeleteProperty(_ context.Context, owner ledger.OwnerID, id ledger.PropertyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteProperty(owner, id)
}

func (m *Memory) GetProperty(_ context.Context, owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getProperty(owner, id)
}

func (m *Memory) ListProperties(_ context.Context, owner ledger.OwnerID) ([]ledger.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listProperties(owner), nil
}

func (m *Memory) InsertTenant(_ context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertTenant(t, m.Now())
}

func (m *Memory) UpdateTenant(_ context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateTenant(t, m.Now())
}

func (m *Memory) DeleteTenant(_ context.Context, owner ledger.OwnerID, id ledger.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteTenant(owner, id)
}

func (m *Memory) GetTenant(_ context.Context, owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getTenant(owner, id)
}

func (m *Memory) ListTenants(_ context.Context, owner ledger.OwnerID) ([]ledger.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listTenants(owner), nil
}

func (m *Memory) SetLastMeterReading(_ context.Context, owner ledger.OwnerID, id ledger.TenantID, reading decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.setLastMeterReading(owner, id, reading, m.Now())
}

func (m *Memory) InsertActivity(_ context.Context, a ledger.Activity) (ledger.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertActivity(a, m.Now())
}

func (m *Memory) GetActivity(_ context.Context, owner ledger.OwnerID, id ledger.ActivityID) (ledger.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getActivity(owner, id)
}

func (m *Memory) ListActivities(_ context.Context, owner ledger.OwnerID, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listActivities(owner, filter), nil
}

func (m *Memory) DeleteTenantActivities(_ context.Context, owner ledger.OwnerID, tenant ledger.TenantID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteTenantActivities(owner, tenant), nil
}

func (m *Memory) ListOwners(_ context.Context) ([]ledger.OwnerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[ledger.OwnerID]bool)
	var owners []ledger.OwnerID
	for _, t := range m.state.tenants {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			owners = append(owners, t.OwnerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners, nil
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and transactional views
// =============================================================================

func (s *memoryState) insertProperty(p ledger.Property, now time.Time) (ledger.Property, error) {
	if p.ID == "" {
		p.ID = ledger.PropertyID(uuid.NewString())
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	s.properties[p.ID] = p
	return p, nil
}

func (s *memoryState) updateProperty(p ledger.Property, now time.Time) (ledger.Property, error) {
	existing, err := s.getProperty(p.OwnerID, p.ID)
	if err != nil {
		return ledger.Property{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now
	s.properties[p.ID] = p
	return p, nil
}

func (s *memoryState) deleteProperty(owner ledger.OwnerID, id ledger.PropertyID) error {
	if _, err := s.getProperty(owner, id); err != nil {
		return err
	}
	delete(s.properties, id)
	return nil
}

func (s *memoryState) getProperty(owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	p, ok := s.properties[id]
	if !ok || p.OwnerID != owner {
		return ledger.Property{}, &ledger.NotFoundError{Kind: "property", ID: string(id)}
	}
	return p, nil
}

func (s *memoryState) listProperties(owner ledger.OwnerID) []ledger.Property {
	var result []ledger.Property
	for _, p := range s.properties {
		if p.OwnerID == owner {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *memoryState) insertTenant(t ledger.Tenant, now time.Time) (ledger.Tenant, error) {
	if t.ID == "" {
		t.ID = ledger.TenantID(uuid.NewString())
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tenants[t.ID] = t
	return t, nil
}

func (s *memoryState) updateTenant(t ledger.Tenant, now time.Time) (ledger.Tenant, error) {
	existing, err := s.getTenant(t.OwnerID, t.ID)
	if err != nil {
		return ledger.Tenant{}, err
	}
	t.LastMeterReading = existing.LastMeterReading
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = now
	s.tenants[t.ID] = t
	return t, nil
}

func (s *memoryState) deleteTenant(owner ledger.OwnerID, id ledger.TenantID) error {
	if _, err := s.getTenant(owner, id); err != nil {
		return err
	}
	delete(s.tenants, id)
	return nil
}

func (s *memoryState) getTenant(owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok || t.OwnerID != owner {
		return ledger.Tenant{}, &ledger.NotFoundError{Kind: "tenant", ID: string(id)}
	}
	return t, nil
}

func (s *memoryState) listTenants(owner ledger.OwnerID) []ledger.Tenant {
	var result []ledger.Tenant
	for _, t := range s.tenants {
		if t.OwnerID == owner {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *memoryState) setLastMeterReading(owner ledger.OwnerID, id ledger.TenantID, reading decimal.Decimal, now time.Time) error {
	t, err := s.getTenant(owner, id)
	if err != nil {
		return err
	}
	t.LastMeterReading = decimal.NewNullDecimal(reading)
	t.UpdatedAt = now
	s.tenants[id] = t
	return nil
}

func (s *memoryState) insertActivity(a ledger.Activity, now time.Time) (ledger.Activity, error) {
	var key rentKey
	if a.GeneratedKind == ledger.GeneratedAutoRent {
		key = rentKey{TenantID: a.TenantID, Period: a.RentPeriod}
		if _, exists := s.rent[key]; exists {
			return ledger.Activity{}, ledger.ErrDuplicateRentCharge
		}
	}
	if a.ID == "" {
		a.ID = ledger.ActivityID(uuid.NewString())
	}
	a.CreatedAt = now
	s.activities = append(s.activities, a)
	if a.GeneratedKind == ledger.GeneratedAutoRent {
		s.rent[key] = a.ID
	}
	return a, nil
}

func (s *memoryState) getActivity(owner ledger.OwnerID, id ledger.ActivityID) (ledger.Activity, error) {
	for _, a := range s.activities {
		if a.ID == id && a.OwnerID == owner {
			return a, nil
		}
	}
	return ledger.Activity{}, &ledger.NotFoundError{Kind: "activity", ID: string(id)}
}

// listActivities orders ties by insertion: oldest first for ascending
// orders, newest first for descending ones.
func (s *memoryState) listActivities(owner ledger.OwnerID, filter ledger.ActivityFilter) []ledger.Activity {
	var result []ledger.Activity
	descending := filter.Order != ledger.OrderDateAsc
	for i := range s.activities {
		a := s.activities[i]
		if descending {
			a = s.activities[len(s.activities)-1-i]
		}
		if a.OwnerID == owner && filter.Matches(a) {
			result = append(result, a)
		}
	}

	switch filter.Order {
	case ledger.OrderDateAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	case ledger.OrderDateDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	case ledger.OrderCreatedDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].OrderTime().After(result[j].OrderTime()) })
	}

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result
}

func (s *memoryState) deleteTenantActivities(owner ledger.OwnerID, tenant ledger.TenantID) int {
	kept := s.activities[:0:0]
	removed := 0
	for _, a := range s.activities {
		if a.OwnerID == owner && a.TenantID == tenant {
			removed++
			if a.GeneratedKind == ledger.GeneratedAutoRent {
				delete(s.rent, rentKey{TenantID: a.TenantID, Period: a.RentPeriod})
			}
			continue
		}
		kept = append(kept, a)
	}
	s.activities = kept
	return removed
}

func (s *memoryState) clone() memoryState {
	c := memoryState{
		properties: make(map[ledger.PropertyID]ledger.Property, len(s.properties)),
		tenants:    make(map[ledger.TenantID]ledger.Tenant, len(s.tenants)),
		activities: append([]ledger.Activity(nil), s.activities...),
		rent:       make(map[rentKey]ledger.ActivityID, len(s.rent)),
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.rent {
		c.rent[k] = v
	}
	return c
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// fn must only use the Store it is given; the outer store is locked.
func (tm *TxMemory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.state.clone()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.state = snapshot
		return err
	}
	return nil
}

type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) InsertProperty(_ context.Context, p ledger.Property) (ledger.Property, error) {
	return tv.parent.state.insertProperty(p, tv.parent.Now())
}

func (tv *txMemoryView) UpdateProperty(_ context.Context, p ledger.Property) (ledger.Property, error) {
	return tv.parent.state.updateProperty(p, tv.parent.Now())
}

func (tv *txMemoryView) DeleteProperty(_ context.Context, owner ledger.OwnerID, id ledger.PropertyID) error {
	return tv.parent.state.deleteProperty(owner, id)
}

func (tv *txMemoryView) GetProperty(_ context.Context, owner ledger.OwnerID, id ledger.PropertyID) (ledger.Property, error) {
	return tv.parent.state.getProperty(owner, id)
}

func (tv *txMemoryView) ListProperties(_ context.Context, owner ledger.OwnerID) ([]ledger.Property, error) {
	return tv.parent.state.listProperties(owner), nil
}

func (tv *txMemoryView) InsertTenant(_ context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	return tv.parent.state.insertTenant(t, tv.parent.Now())
}

func (tv *txMemoryView) UpdateTenant(_ context.Context, t ledger.Tenant) (ledger.Tenant, error) {
	return tv.parent.state.updateTenant(t, tv.parent.Now())
}

func (tv *txMemoryView) DeleteTenant(_ context.Context, owner ledger.OwnerID, id ledger.TenantID) error {
	return tv.parent.state.deleteTenant(owner, id)
}

func (tv *txMemoryView) GetTenant(_ context.Context, owner ledger.OwnerID, id ledger.TenantID) (ledger.Tenant, error) {
	return tv.parent.state.getTenant(owner, id)
}

func (tv *txMemoryView) ListTenants(_ context.Context, owner ledger.OwnerID) ([]ledger.Tenant, error) {
	return tv.parent.state.listTenants(owner), nil
}

func (tv *txMemoryView) SetLastMeterReading(_ context.Context, owner ledger.OwnerID, id ledger.TenantID, reading decimal.Decimal) error {
	return tv.parent.state.setLastMeterReading(owner, id, reading, tv.parent.Now())
}

func (tv *txMemoryView) InsertActivity(_ context.Context, a ledger.Activity) (ledger.Activity, error) {
	return tv.parent.state.insertActivity(a, tv.parent.Now())
}

func (tv *txMemoryView) GetActivity(_ context.Context, owner ledger.OwnerID, id ledger.ActivityID) (ledger.Activity, error) {
	return tv.parent.state.getActivity(owner, id)
}

func (tv *txMemoryView) ListActivities(_ context.Context, owner ledger.OwnerID, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	return tv.parent.state.listActivities(owner, filter), nil
}

func (tv *txMemoryView) DeleteTenantActivities(_ context.Context, owner ledger.OwnerID, tenant ledger.TenantID) (int, error) {
	return tv.parent.state.deleteTenantActivities(owner, tenant), nil
}

var (
	_ ledger.TxStore     = (*TxMemory)(nil)
	_ ledger.OwnerLister = (*Memory)(nil)
	_ ledger.Store       = (*txMemoryView)(nil)
)
