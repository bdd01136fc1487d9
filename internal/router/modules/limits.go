package modules

import (
	"time"

	"github.com/oksasatya/langbridge/internal/interface/middleware"
)

// Quotas per route family. "user" is shared by every authenticated route.
var (
	signupLimit  = middleware.Limit{Name: "signup", Max: 5, Window: time.Minute, Key: middleware.KeyByIP()}
	loginLimit   = middleware.Limit{Name: "login", Max: 10, Window: time.Minute, Key: middleware.KeyByIP()}
	refreshLimit = middleware.Limit{Name: "refresh", Max: 60, Window: time.Minute, Key: middleware.KeyByIP()}
	userLimit    = middleware.Limit{Name: "user", Max: 120, Window: time.Minute, Key: middleware.KeyByUserID()}
	socialLimit  = middleware.Limit{Name: "social", Max: 300, Window: time.Minute, Key: middleware.KeyByIP()}
	sendLimit    = middleware.Limit{Name: "friend_request", Max: 30, Window: time.Minute, Key: middleware.KeyByUserID()}
	uploadLimit  = middleware.Limit{Name: "upload", Max: 10, Window: time.Minute, Key: middleware.KeyByUserID()}
	debugLimit   = middleware.Limit{Name: "debug", Max: 120, Window: time.Minute, Key: middleware.KeyByIP()}
)
