package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/teemow/craftpanel/internal/rcon"
)

// Key identifies a message in the catalog.
type Key string

// Panel messages.
const (
	AuthRequired    Key = "auth.required"
	AccessDenied    Key = "auth.access_denied"
	NoServerAccess  Key = "auth.no_server_access"
	LoggedOut       Key = "auth.logged_out"
	AlreadyRunning  Key = "server.already_running"
	Started         Key = "server.started"
	NotRunning      Key = "server.not_running"
	Stopped         Key = "server.stopped"
	StartFailed     Key = "server.start_failed"
	StopFailed      Key = "server.stop_failed"
	RestartFailed   Key = "server.restart_failed"
	TooManyCommands Key = "command.too_many"
	EmptyCommand    Key = "command.empty"
	CommandFailed   Key = "command.failed"
	LogReadFailed   Key = "logs.read_failed"
	BadLineCount    Key = "logs.bad_line_count"
	BadRequest      Key = "request.malformed"
	RCONRefused     Key = "rcon.refused"
	RCONTimeout     Key = "rcon.timeout"
	RCONError       Key = "rcon.error"
	InternalError   Key = "internal.error"
)

// OAuth messages. These are English in every locale because browsers show
// them on the bare callback page.
const (
	OAuthNotConfigured     Key = "oauth.not_configured"
	OAuthInvalidState      Key = "oauth.invalid_state"
	OAuthStateUsed         Key = "oauth.state_used"
	OAuthTokenError        Key = "oauth.token_error"
	OAuthIncompleteProfile Key = "oauth.incomplete_profile"
	OAuthUnreachable       Key = "oauth.unreachable"
	OAuthFailed            Key = "oauth.failed"
)

var (
	// Russian is the default panel locale.
	Russian = language.Russian
	English = language.English

	supported = []language.Tag{Russian, English}
	matcher   = language.NewMatcher(supported)
)

var oauthMessages = map[Key]string{
	OAuthNotConfigured:     "OAuth configuration is incomplete",
	OAuthInvalidState:      "Invalid state token",
	OAuthStateUsed:         "State token already used",
	OAuthTokenError:        "Authentication error: %s",
	OAuthIncompleteProfile: "Incomplete user information received",
	OAuthUnreachable:       "Failed to communicate with authentication service",
	OAuthFailed:            "Authentication error",
}

var translations = map[language.Tag]map[Key]string{
	Russian: {
		AuthRequired:    "Необходима авторизация",
		AccessDenied:    "Доступ запрещен",
		NoServerAccess:  "У вас нет доступа к управлению сервером",
		LoggedOut:       "Вы вышли из системы",
		AlreadyRunning:  "Сервер уже работает",
		Started:         "Сервер запущен",
		NotRunning:      "Сервер не запущен",
		Stopped:         "Сервер выключен",
		StartFailed:     "[Система]: Ошибка запуска сервера: %v",
		StopFailed:      "[Система]: Ошибка остановки сервера: %v",
		RestartFailed:   "[Система]: Ошибка перезапуска сервера: %v",
		TooManyCommands: "Слишком много команд. Подождите немного.",
		EmptyCommand:    "Команда не может быть пустой",
		CommandFailed:   "[Система]: Ошибка выполнения команды: %v",
		LogReadFailed:   "[Система]: Ошибка чтения логов: %v",
		BadLineCount:    "Некорректное количество строк",
		BadRequest:      "Некорректный запрос",
		RCONRefused:     "[Система]: Сервер не принимает RCON-подключения. Возможно, сервер не запущен.",
		RCONTimeout:     "[Система]: Превышено время ожидания RCON-соединения.",
		RCONError:       "[Система]: Ошибка RCON: %v",
		InternalError:   "[Система]: Внутренняя ошибка",
	},
	English: {
		AuthRequired:    "Authentication required",
		AccessDenied:    "Access denied",
		NoServerAccess:  "You do not have access to manage the server",
		LoggedOut:       "You have been logged out",
		AlreadyRunning:  "Server is already running",
		Started:         "Server started",
		NotRunning:      "Server is not running",
		Stopped:         "Server stopped",
		StartFailed:     "[System]: Failed to start server: %v",
		StopFailed:      "[System]: Failed to stop server: %v",
		RestartFailed:   "[System]: Failed to restart server: %v",
		TooManyCommands: "Too many commands. Please wait a moment.",
		EmptyCommand:    "Command must not be empty",
		CommandFailed:   "[System]: Command failed: %v",
		LogReadFailed:   "[System]: Failed to read logs: %v",
		BadLineCount:    "Invalid line count",
		BadRequest:      "Malformed request",
		RCONRefused:     "[System]: The server does not accept RCON connections. It may not be running.",
		RCONTimeout:     "[System]: RCON connection timed out.",
		RCONError:       "[System]: RCON error: %v",
		InternalError:   "[System]: Internal error",
	},
}

var defaultCatalog = mustBuildCatalog()

func mustBuildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Russian))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, string(key), msg); err != nil {
				panic(fmt.Sprintf("i18n: register %s/%s: %v", tag, key, err))
			}
		}
		for key, msg := range oauthMessages {
			if err := b.SetString(tag, string(key), msg); err != nil {
				panic(fmt.Sprintf("i18n: register %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Keys returns every message key known to the catalog.
func Keys() []Key {
	keys := make([]Key, 0, len(translations[Russian])+len(oauthMessages))
	for k := range translations[Russian] {
		keys = append(keys, k)
	}
	for k := range oauthMessages {
		keys = append(keys, k)
	}
	return keys
}

// Match resolves a locale string to the closest supported tag.
// Empty or unparsable input yields Russian.
func Match(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return Russian
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Russian
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Translator renders messages for one locale. It is safe for concurrent use.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for locale.
func New(locale string) *Translator {
	tag := Match(locale)
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(defaultCatalog)),
	}
}

// Tag returns the resolved locale.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Text renders key with optional format arguments.
func (t *Translator) Text(key Key, args ...any) string {
	return t.printer.Sprintf(string(key), args...)
}

// RCONFormatter renders console failures in the translator's locale.
func (t *Translator) RCONFormatter() rcon.Formatter {
	return func(kind rcon.FailureKind, err error) string {
		switch kind {
		case rcon.FailureRefused:
			return t.Text(RCONRefused)
		case rcon.FailureTimeout:
			return t.Text(RCONTimeout)
		default:
			return t.Text(RCONError, err)
		}
	}
}
