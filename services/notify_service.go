package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akay/lokanta/api"
	"github.com/akay/lokanta/models"
)

// initialPageSize: açılışta çekilen bildirim sayfası. Daha eskisi
// kullanıcı scroll ettikçe LoadMore ile gelir.
const initialPageSize = 50

// ReadStateBroadcaster, okundu bilgisinin diğer aktif oturumlara
// yayılacağı kanal. realtime.Conn bunu sağlar; testlerde fake geçilir.
type ReadStateBroadcaster interface {
	EmitMarkRead(notificationID string)
}

// NotifyService, bildirim cache'i ve okunmamış sayaçlarının iş mantığı.
//
// İki sayaç tutulur: toplam okunmamış ve mesaj tipli okunmamış (navbar
// chat rozeti). Her işlemden sonra 0 <= mesaj <= toplam geçerlidir —
// sayaçlar cache'ten türetilir, ayrı ayrı mutasyonla tutarsızlaşamaz.
type NotifyService interface {
	LoadInitial(ctx context.Context)
	LoadMore(ctx context.Context) error
	Notifications() []models.Notification
	UnreadCount() int
	UnreadMessageCount() int
	OnPush(n models.Notification)
	SetUnreadCount(count int)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Subscribe(fn func()) (cancel func())
}

type notifyService struct {
	api       *api.Client
	broadcast ReadStateBroadcaster
	log       zerolog.Logger

	mu        sync.Mutex
	items     []models.Notification
	unread    int
	unreadMsg int
	nextPage  int

	subSeq int
	subs   map[int]func()
}

// NewNotifyService, constructor.
func NewNotifyService(apiClient *api.Client, broadcast ReadStateBroadcaster, log zerolog.Logger) NotifyService {
	return &notifyService{
		api:       apiClient,
		broadcast: broadcast,
		log:       log,
		nextPage:  1,
		subs:      make(map[int]func()),
	}
}

// LoadInitial, cache'i backend'den TOPTAN yeniler.
// Hata durumunda cache boşaltılır ve sayaçlar sıfırlanır — eski veriyi
// göstermekten daha iyidir, sonraki başarılı yükleme tamamını getirir.
func (s *notifyService) LoadInitial(ctx context.Context) {
	items, err := s.api.ListNotifications(ctx, 1, initialPageSize, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load notifications, clearing cache")
		items = nil
	}

	s.mu.Lock()
	s.items = items
	s.nextPage = 2
	s.recomputeLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs)
}

// LoadMore, bir sonraki sayfayı cache'in sonuna ekler (scroll akışı).
func (s *notifyService) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	page := s.nextPage
	s.mu.Unlock()

	items, err := s.api.ListNotifications(ctx, page, initialPageSize, false)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, n := range items {
		if s.indexOfLocked(n.ID) == -1 {
			s.items = append(s.items, n)
		}
	}
	s.nextPage = page + 1
	s.recomputeLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs)
	return nil
}

// Notifications, cache'in kopyasını döner (en yeni başta).
func (s *notifyService) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount, toplam okunmamış bildirim sayısı.
func (s *notifyService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// UnreadMessageCount, okunmamış MESAJ bildirimi sayısı (chat rozeti).
func (s *notifyService) UnreadMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadMsg
}

// OnPush, realtime'dan gelen bildirimi cache'in başına ekler.
// Aynı id ikinci kez gelirse HİÇBİR ŞEY değişmez — ne liste büyür ne
// sayaç artar (push kanalı duplicate teslim edebilir).
func (s *notifyService) OnPush(n models.Notification) {
	s.mu.Lock()
	if n.ID != "" && s.indexOfLocked(n.ID) != -1 {
		s.mu.Unlock()
		s.log.Debug().Str("id", n.ID).Msg("duplicate push notification ignored")
		return
	}

	s.items = append([]models.Notification{n}, s.items...)
	s.recomputeLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs)
}

// SetUnreadCount, server'ın push'ladığı otoriter sayacı uygular.
// Server her zaman haklıdır — yerel hesap üzerine yazılır. Mesaj
// sayacı toplamı aşamayacağı için gerekirse aşağı çekilir.
func (s *notifyService) SetUnreadCount(count int) {
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	s.unread = count
	if s.unreadMsg > s.unread {
		s.unreadMsg = s.unread
	}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	s.notify(subs)
}

// MarkRead, bildirimi optimistic olarak okundu işaretler.
//
// Akış: yerel flip + sayaç düşümü hemen → REST onayı → realtime yayını.
// REST BAŞARISIZSA yerel flip GERİ ALINIR ve hata döner — kullanıcı
// rozeti düşmüş ama server'da okunmamış bir bildirim görmemelidir.
// Zaten okunmuş ya da cache'te olmayan id no-op'tur.
func (s *notifyService) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx == -1 || s.items[idx].IsRead {
		s.mu.Unlock()
		return nil
	}
	s.items[idx].IsRead = true
	s.recomputeLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	s.notify(subs)

	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		// Revert: server kabul etmedi, yerel state server'la hizalanır.
		s.mu.Lock()
		if idx := s.indexOfLocked(id); idx != -1 {
			s.items[idx].IsRead = false
		}
		s.recomputeLocked()
		subs := s.snapshotSubsLocked()
		s.mu.Unlock()
		s.notify(subs)

		s.log.Warn().Str("id", id).Err(err).Msg("mark read rejected, reverted")
		return err
	}

	if s.broadcast != nil {
		s.broadcast.EmitMarkRead(id)
	}
	return nil
}

// MarkAllRead, okunmamışları TEK TEK işaretler — atomik değildir.
// Biri başarısız olsa bile kalanlar denenmeye devam eder; başarısız
// olanlar revert edilmiş kalır, ilk hata en sonda döner.
func (s *notifyService) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for _, n := range s.items {
		if !n.IsRead && n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := s.MarkRead(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe, her cache/sayaç değişiminde çağrılır.
func (s *notifyService) Subscribe(fn func()) func() {
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

// recomputeLocked, sayaçları cache'ten baştan türetir.
// Artırma/azaltma muhasebesi yerine türetme — sayaçlar listeyle asla
// çelişemez ve 0 <= unreadMsg <= unread kendiliğinden sağlanır.
func (s *notifyService) recomputeLocked() {
	unread, unreadMsg := 0, 0
	for _, n := range s.items {
		if n.IsRead {
			continue
		}
		unread++
		if n.IsMessage() {
			unreadMsg++
		}
	}
	s.unread = unread
	s.unreadMsg = unreadMsg
}

func (s *notifyService) indexOfLocked(id string) int {
	for i, n := range s.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *notifyService) snapshotSubsLocked() []func() {
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *notifyService) notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
