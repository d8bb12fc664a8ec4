package httpx

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	MsgInternal        = "internal error"
	MsgUserNotExist    = "user does not exist"
	MsgUserIsWrong     = "user is wrong"
	MsgPassWordError   = "password error"
	MsgSessionNotFound = "session not found"
	MsgValidation      = "invalid request"
	MsgUnauthorized    = "unauthorized"
	MsgForbidden       = "forbidden"
	MsgLogoutSuccess   = "logout succeeded"
	MsgRefreshQueued   = "permission refresh queued"
)

// Chinese is listed first and therefore wins when Accept-Language is absent
// or matches nothing.
var supported = []language.Tag{language.Chinese, language.English}

var matcher = language.NewMatcher(supported)

func init() {
	zh := map[string]string{
		MsgInternal:        "internal error",
		MsgUserNotExist:    "用户不存在",
		MsgUserIsWrong:     "用户不正确",
		MsgPassWordError:   "密码错误",
		MsgSessionNotFound: "会话不存在",
		MsgValidation:      "请求参数错误",
		MsgUnauthorized:    "未授权",
		MsgForbidden:       "无权限",
		MsgLogoutSuccess:   "退出成功!",
		MsgRefreshQueued:   "权限刷新已提交",
	}
	for key, msg := range zh {
		_ = message.SetString(language.Chinese, key, msg)
		_ = message.SetString(language.English, key, key)
	}
}

// Localize returns the message for key in the language negotiated from the
// request's Accept-Language header.
func Localize(r *http.Request, key string) string {
	var tags []language.Tag
	if r != nil {
		tags, _, _ = language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	}
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx]).Sprintf(message.Key(key, key))
}
