package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akay/lokanta/api"
	"github.com/akay/lokanta/store"
)

// BootstrapState, login sonrası akışın vardığı ekranı söyler.
type BootstrapState string

const (
	// StateNeedsRestaurant: hesabın henüz restoranı yok — kurulum ekranı.
	StateNeedsRestaurant BootstrapState = "needs_restaurant"
	// StateDashboard: restoran seçildi, ana ekran açılabilir.
	StateDashboard BootstrapState = "dashboard"
)

// RestaurantSelector, aktif restoran seçiminin tek sahibidir.
//
// Global singleton DEĞİLDİR — main'de kurulur, ihtiyaç duyan her servise
// referans olarak geçilir. Set çağrısı dönmeden ÖNCE tüm aboneler
// senkron bilgilendirilir: Set'ten sonra Get yapan hiçbir kod eski
// id okuyamaz.
type RestaurantSelector interface {
	Set(id string)
	Get() (string, bool)
	Clear()
	Bootstrap(ctx context.Context) (BootstrapState, error)
	Subscribe(fn func(id string, ok bool)) (cancel func())
}

type restaurantSelector struct {
	api   *api.Client
	store *store.Store
	log   zerolog.Logger

	mu     sync.Mutex
	id     string
	set    bool
	subSeq int
	subs   map[int]func(string, bool)
}

// NewRestaurantSelector, constructor. Persist edilmiş seçim varsa yükler.
func NewRestaurantSelector(apiClient *api.Client, st *store.Store, log zerolog.Logger) RestaurantSelector {
	s := &restaurantSelector{
		api:   apiClient,
		store: st,
		log:   log,
		subs:  make(map[int]func(string, bool)),
	}

	if id, err := st.Get(store.KeyRestaurantID); err == nil && id != "" {
		s.id = id
		s.set = true
	}
	return s
}

// Set, aktif restoranı değiştirir, persist eder ve aboneleri SENKRON
// bilgilendirir. Döndüğünde tüm aboneler yeni id'yi görmüştür.
func (s *restaurantSelector) Set(id string) {
	s.mu.Lock()
	s.id = id
	s.set = true
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	if err := s.store.Set(store.KeyRestaurantID, id); err != nil {
		s.log.Error().Err(err).Msg("failed to persist restaurant selection")
	}

	for _, fn := range subs {
		fn(id, true)
	}
}

// Get, seçili restoran id'sini döner.
func (s *restaurantSelector) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.set
}

// Clear, seçimi kaldırır (logout akışı).
func (s *restaurantSelector) Clear() {
	s.mu.Lock()
	s.id = ""
	s.set = false
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	if err := s.store.Delete(store.KeyRestaurantID); err != nil {
		s.log.Error().Err(err).Msg("failed to clear restaurant selection")
	}

	for _, fn := range subs {
		fn("", false)
	}
}

// Bootstrap, login sonrası "nereye gidilecek?" kararını verir.
//
// Profil çekilir: restoran yoksa kurulum ekranı, varsa seçim yapılıp
// dashboard. Profil hatası olduğu gibi döner — çağıran login ekranında
// hata gösterir, yarım bir seçim state'i oluşmaz.
func (s *restaurantSelector) Bootstrap(ctx context.Context) (BootstrapState, error) {
	restaurant, err := s.api.GetProfile(ctx)
	if err != nil {
		return "", err
	}

	if restaurant == nil {
		s.log.Info().Msg("account has no restaurant yet")
		return StateNeedsRestaurant, nil
	}

	s.Set(restaurant.ID)
	s.log.Info().Str("restaurant_id", restaurant.ID).Msg("restaurant selected")
	return StateDashboard, nil
}

// Subscribe, seçim değişikliklerine abone olur; cancel kaydı siler.
func (s *restaurantSelector) Subscribe(fn func(string, bool)) func() {
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *restaurantSelector) snapshotSubsLocked() []func(string, bool) {
	subs := make([]func(string, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
