package bot

import (
	"fmt"
	"net/http"

	"golang.org/x/net/proxy"
	tgbotapi "gopkg.in/telegram-bot-api.v4"

	applog "gastos/internal/log"
)

// ProxyConfig describes an optional SOCKS5 proxy for the Bot API.
type ProxyConfig struct {
	Server string // host:port, empty means direct
	User   string
	Pass   string
}

// NewAPI authorizes against the Telegram Bot API, through the SOCKS5 proxy
// when one is configured.
func NewAPI(token string, px ProxyConfig, logger *applog.Logger) (*tgbotapi.BotAPI, error) {
	var (
		api *tgbotapi.BotAPI
		err error
	)
	if px.Server != "" {
		logger.Info("Connecting to Telegram through SOCKS5 proxy", "server", px.Server, "user", px.User)
		client, perr := proxyClient(px)
		if perr != nil {
			return nil, perr
		}
		api, err = tgbotapi.NewBotAPIWithClient(token, client)
	} else {
		api, err = tgbotapi.NewBotAPI(token)
	}
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "account", api.Self.UserName)
	return api, nil
}

func proxyClient(px ProxyConfig) (*http.Client, error) {
	var auth *proxy.Auth
	if px.User != "" {
		auth = &proxy.Auth{User: px.User, Password: px.Pass}
	}
	dialer, err := proxy.SOCKS5("tcp", px.Server, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}
	transport := &http.Transport{Dial: dialer.Dial}
	return &http.Client{Transport: transport}, nil
}

// Updates opens the long-poll update channel.
func Updates(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := api.GetUpdatesChan(u)
	if err != nil {
		return nil, fmt.Errorf("get updates channel: %w", err)
	}
	return updates, nil
}
