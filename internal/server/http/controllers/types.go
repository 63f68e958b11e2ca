package controllers

import chatsvc "github.com/rzbill/blinkhub/internal/services/chat"

// Common request/response types for HTTP controllers

type settingPutReq struct {
	Value string `json:"value"`
}

type settingResp struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type tokenReq struct {
	Token string `json:"token"`
}

// tokenResp never echoes the token itself.
type tokenResp struct {
	Configured bool `json:"configured"`
}

type notifyTargetReq struct {
	ID   string             `json:"id"`
	Type chatsvc.TargetType `json:"type"`
}

type notifyTextReq struct {
	Text string `json:"text"`
}

type sourceReq struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type snapshotReq struct {
	URL string `json:"url"`
}

type trimResp struct {
	Deleted int `json:"deleted"`
}
