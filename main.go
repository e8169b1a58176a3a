// Package main, lokanta dashboard core'unun giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Logger'ı kur
//  3. Yerel storage'ı aç (kv + watcher)
//  4. REST API client'ı oluştur
//  5. Session service'i kur (token callback'leri burada bağlanır)
//  6. Restaurant selector'ı oluştur
//  7. Realtime bağlantısını hazırla
//  8. Chat + notification service'lerini kur, realtime handler'larını bağla
//  9. Persist edilmiş oturumu restore et, varsa bağlan ve bootstrap et
// 10. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akay/lokanta/api"
	"github.com/akay/lokanta/config"
	"github.com/akay/lokanta/pkg/i18n"
	"github.com/akay/lokanta/pkg/logger"
	"github.com/akay/lokanta/realtime"
	"github.com/akay/lokanta/services"
	"github.com/akay/lokanta/store"
)

func main() {
	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", true)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	// ─── 2. Logger + Dil ───
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	i18n.SetLanguage(cfg.Language)
	log.Info().Str("api", cfg.API.BaseURL).Msg("lokanta core starting")

	// ─── 3. Storage ───
	st, err := store.Open(cfg.Storage.Path, cfg.Storage.Key, logger.For(log, "store"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer st.Close()

	// ─── 4. API Client ───
	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.For(log, "api"))

	// ─── 5. Session Service ───
	// Constructor, api client'ın token source/refresh/expired callback'lerini
	// ve storage watcher'ını (cross-tab logout) kendisi bağlar.
	session := services.NewSessionService(apiClient, st, logger.For(log, "session"))
	defer session.Close()

	// ─── 6. Restaurant Selector ───
	selector := services.NewRestaurantSelector(apiClient, st, logger.For(log, "selector"))

	// ─── 7. Realtime ───
	// Token her (re)connect'te session'dan taze okunur — refresh sonrası
	// reconnect eski token'la el sıkışmaz.
	conn := realtime.NewConn(cfg.Realtime.URL, func() string {
		sess, _ := session.Current()
		return sess.AccessToken
	}, logger.For(log, "realtime"))
	defer conn.Disconnect()

	// ─── 8. Chat + Notification Service'leri ───
	chat := services.NewChatService(conn, func() string {
		sess, _ := session.Current()
		return sess.User.ID
	}, logger.For(log, "chat"))
	defer chat.Close()

	notify := services.NewNotifyService(apiClient, conn, logger.For(log, "notify"))

	// Realtime handler wire-up — inbound event'ler service'lere akar.
	services.BindRealtime(conn, chat)
	conn.OnNotification(notify.OnPush)
	conn.OnUnreadCount(notify.SetUnreadCount)

	// Oturum düştüğünde (refresh tükenişi ya da cross-tab logout):
	// bağlantı kapanır, UI katmanı login ekranına döner.
	session.OnInvalidated(func() {
		conn.Disconnect()
		selector.Clear()
		log.Info().Msg("session ended, redirecting to login")
	})

	// ─── 9. Restore + Bootstrap ───
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if sess, ok := session.Restore(); ok {
		if err := conn.Connect(ctx, sess.User.ID); err != nil {
			log.Warn().Err(err).Msg("realtime unavailable, continuing without push")
		}
		notify.LoadInitial(ctx)

		state, err := selector.Bootstrap(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("bootstrap failed")
		} else {
			log.Info().Str("state", string(state)).Msg("bootstrap complete")
		}
	} else {
		log.Info().Msg("no stored session, login required")
	}
	cancel()

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info().Msg("shutting down")
}
