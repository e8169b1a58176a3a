package services

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/api"
	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/store"
)

// logoutTimeout: backend'e logout bildirimi için üst sınır.
// Süre dolsa da yerel temizlik yapılır — logout asla bloklamaz.
const logoutTimeout = 5 * time.Second

// SessionService, oturum yaşam döngüsü iş mantığı interface'i.
//
// Token state'inin tek sahibi budur: API client token'ları buradan okur
// (TokenSource), refresh sonucunu buraya iletir (OnRefreshed), refresh
// tükenince buradan invalidation tetikler (OnTokenExpired).
type SessionService interface {
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context)
	Restore() (models.Session, bool)
	Current() (models.Session, bool)
	Guard(ctx context.Context) bool
	OnInvalidated(fn func()) (cancel func())
	Subscribe(fn func(models.Session, bool)) (cancel func())
	Close()
}

type sessionService struct {
	api   *api.Client
	store *store.Store
	log   zerolog.Logger

	mu      sync.Mutex
	current models.Session
	authed  bool

	// expiry: access token'ın exp anında ateşlenen timer.
	// Refresh her yeni token yüklediğinde yeniden kurulur.
	expiry *time.Timer

	subSeq      int
	subs        map[int]func(models.Session, bool)
	invalidated map[int]func()

	stopWatch func()
	closeOnce sync.Once
}

// NewSessionService, constructor. API client'ın token callback'lerini ve
// storage watcher'ını (cross-tab logout sinyali) burada bağlar.
func NewSessionService(apiClient *api.Client, st *store.Store, log zerolog.Logger) SessionService {
	s := &sessionService{
		api:         apiClient,
		store:       st,
		log:         log,
		subs:        make(map[int]func(models.Session, bool)),
		invalidated: make(map[int]func()),
	}

	apiClient.SetTokenSource(func() (string, string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.current.AccessToken, s.current.RefreshToken
	})
	apiClient.OnRefreshed(s.install)
	apiClient.OnTokenExpired(s.invalidate)

	events, cancel := st.Watch()
	s.stopWatch = cancel
	go s.watchStorage(events)

	return s
}

// Login, kimlik doğrulaması yapar ve oturumu kurar.
// Validation client tarafında önce çalışır — geçersiz form network'e çıkmaz.
// Başarısızlıkta hiçbir state değişmez.
func (s *sessionService) Login(ctx context.Context, email, password string) (models.Session, error) {
	req := models.LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return models.Session{}, err
	}

	sess, err := s.api.Login(ctx, req)
	if err != nil {
		return models.Session{}, err
	}

	s.install(sess)
	s.log.Info().Str("user_id", sess.User.ID).Msg("logged in")
	return sess, nil
}

// install, yeni session'ı belleğe yükler, persist eder ve expiry timer'ı kurar.
// Hem Login hem refresh interceptor'ı (OnRefreshed) bu yoldan geçer.
//
// Önce lock altında efektif session çözülür, persistence o snapshot'tan
// yapılır: refresh yanıtı user taşımadığında disk'teki user kaydı
// boş user'la EZİLMEZ, sonraki Restore oturumu bulur.
func (s *sessionService) install(sess models.Session) {
	s.mu.Lock()
	// Refresh yanıtı user taşımayabilir — mevcut user korunur.
	if sess.User.ID == "" {
		sess.User = s.current.User
	}
	s.current = sess
	s.authed = sess.Authenticated()
	s.armExpiryLocked()
	snapshot, authed := s.current, s.authed
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	userJSON, err := json.Marshal(snapshot.User)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode user for storage")
		userJSON = []byte("{}")
	}

	if err := s.store.Set(store.KeyToken, snapshot.AccessToken); err != nil {
		s.log.Error().Err(err).Msg("failed to persist access token")
	}
	if err := s.store.Set(store.KeyRefreshToken, snapshot.RefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed to persist refresh token")
	}
	if err := s.store.Set(store.KeyUser, string(userJSON)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist user")
	}

	for _, fn := range subs {
		fn(snapshot, authed)
	}
}

// armExpiryLocked, access token'ın exp claim'inden invalidation timer'ı kurar.
// Parse edilemeyen ya da exp'siz token'da timer kurulmaz — 401 interceptor'ı
// yine de devrededir, timer sadece proaktif sinyaldir.
func (s *sessionService) armExpiryLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if s.current.AccessToken == "" {
		return
	}

	exp, err := models.ParseAccessTokenExpiry(s.current.AccessToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("access token has no readable expiry")
		return
	}

	remaining := time.Until(exp)
	if remaining <= 0 {
		// Süresi geçmiş token restore'da gelebilir — ilk korumalı çağrı
		// refresh interceptor'ından geçer, burada oturum düşürülmez.
		return
	}
	s.expiry = time.AfterFunc(remaining, s.invalidate)
}

// Logout, oturumu kapatır.
//
// Backend bildirimi best-effort'tur: ayrı goroutine'de, süre sınırlı,
// hatası yutulur. Yerel temizlik KOŞULSUZ yapılır — network yokken bile
// kullanıcı oturumdan çıkabilmelidir. Refresh token yokken de güvenlidir.
func (s *sessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	refresh := s.current.RefreshToken
	s.mu.Unlock()

	if refresh != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
			defer cancel()
			if err := s.api.Logout(ctx, refresh); err != nil {
				s.log.Debug().Err(err).Msg("backend logout failed, local state cleared anyway")
			}
		}()
	}

	s.clearLocal()
	s.log.Info().Msg("logged out")
}

// Restore, uygulama açılışında persist edilmiş oturumu yükler.
// Schema versiyonu uyuşmuyorsa storage güvenilmezdir — temizlenir ve
// oturum yokmuş gibi davranılır.
func (s *sessionService) Restore() (models.Session, bool) {
	version, err := s.store.Get(store.KeySchemaVersion)
	if err != nil || version != store.SchemaVersion {
		s.log.Warn().Str("found", version).Str("want", store.SchemaVersion).
			Msg("storage schema version mismatch, clearing")
		if err := s.store.Clear(); err != nil {
			s.log.Error().Err(err).Msg("failed to clear stale storage")
		}
		return models.Session{}, false
	}

	access, _ := s.store.Get(store.KeyToken)
	refresh, _ := s.store.Get(store.KeyRefreshToken)
	userJSON, _ := s.store.Get(store.KeyUser)

	var user models.User
	if userJSON != "" {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			s.log.Warn().Err(err).Msg("stored user is corrupt, ignoring session")
			return models.Session{}, false
		}
	}

	sess := models.Session{AccessToken: access, RefreshToken: refresh, User: user}
	if !sess.Authenticated() {
		return models.Session{}, false
	}

	s.mu.Lock()
	s.current = sess
	s.authed = true
	s.armExpiryLocked()
	s.mu.Unlock()

	s.log.Info().Str("user_id", user.ID).Msg("session restored")
	return sess, true
}

// Current, anlık oturum snapshot'ını döner.
func (s *sessionService) Current() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.authed
}

// Guard, "bu kullanıcı korumalı ekrana girebilir mi?" sorusunun tek cevabıdır.
//
// Devam eden bir token refresh varsa bitmesini bekler (ctx ile sınırlı) —
// sabit bir grace period YOKTUR. Cevap her zaman kesindir: token + user
// varsa true, yoksa false. Yarı-tanımlı durum dönmez.
func (s *sessionService) Guard(ctx context.Context) bool {
	if err := s.api.WaitRefresh(ctx); err != nil {
		s.log.Debug().Err(err).Msg("guard wait cancelled")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// invalidate, oturumu geçersiz kılar ve "login'e dön" sinyalini yayar.
// İki kaynaktan gelir: refresh tükenişi (api interceptor) ve storage'dan
// token'ın dışarıdan silinmesi (cross-tab logout). Idempotent'tir.
func (s *sessionService) invalidate() {
	s.mu.Lock()
	wasAuthed := s.authed
	s.mu.Unlock()
	if !wasAuthed {
		return
	}

	s.clearLocal()

	s.mu.Lock()
	callbacks := make([]func(), 0, len(s.invalidated))
	for _, fn := range s.invalidated {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	s.log.Info().Msg("session invalidated")
	for _, fn := range callbacks {
		fn()
	}
}

// clearLocal, storage anahtarlarını ve bellek state'ini sıfırlar.
// Seçili restoran da temizlenir — oturumlar arası sızmaz.
func (s *sessionService) clearLocal() {
	for _, key := range []string{store.KeyToken, store.KeyRefreshToken, store.KeyUser, store.KeyRestaurantID} {
		if err := s.store.Delete(key); err != nil {
			s.log.Error().Str("key", key).Err(err).Msg("failed to clear storage key")
		}
	}

	s.mu.Lock()
	s.current = models.Session{}
	s.authed = false
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(models.Session{}, false)
	}
}

// watchStorage, storage değişikliklerini dinler. Token başka bir
// oturum/process tarafından silinmişse burası da oturumu düşürür.
func (s *sessionService) watchStorage(events <-chan store.ChangeEvent) {
	for ev := range events {
		if ev.Key == store.KeyToken && ev.Removed {
			s.mu.Lock()
			stillAuthed := s.authed
			s.mu.Unlock()
			if stillAuthed {
				s.log.Info().Msg("token removed externally, ending session")
				s.invalidate()
			}
		}
	}
}

// OnInvalidated, "login'e dön" callback'i kaydeder.
// Dönen cancel fonksiyonu kaydı siler — ekran kapanışında çağrılır.
func (s *sessionService) OnInvalidated(fn func()) func() {
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	s.invalidated[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.invalidated, id)
		s.mu.Unlock()
	}
}

// Subscribe, her oturum değişiminde (login, refresh, logout) çağrılır.
func (s *sessionService) Subscribe(fn func(models.Session, bool)) func() {
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

func (s *sessionService) snapshotSubsLocked() []func(models.Session, bool) {
	subs := make([]func(models.Session, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Close, watcher'ı ve timer'ı durdurur.
func (s *sessionService) Close() {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		s.mu.Lock()
		if s.expiry != nil {
			s.expiry.Stop()
			s.expiry = nil
		}
		s.mu.Unlock()
	})
}
