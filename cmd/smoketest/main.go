package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// 端到端冒烟脚本：初始化租户 → 登录 → 拉阶段 → 建商机 → 移到 Won → 验证历史。
// 需要一个跑着的 pulsecrm 实例和一个干净的数据库。
// 用法: BASE_URL=http://localhost:8080 smoketest

type seedResponse struct {
	TenantID   string `json:"tenantId"`
	AdminEmail string `json:"adminEmail"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"userId"`
}

type stageItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Kind  string `json:"kind"`
}

type dealItem struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	StageID string `json:"stageId"`
}

type historyItem struct {
	FromStageID   string `json:"fromStageId"`
	ToStageID     string `json:"toStageId"`
	MovedByUserID string `json:"movedByUserId"`
}

func main() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	// 1. seed
	var seed seedResponse
	resp, err := client.R().
		SetBody(map[string]string{
			"tenantName":    "Smoke Test Inc.",
			"adminName":     "Smoke Admin",
			"adminEmail":    "smoke@example.com",
			"adminPassword": "Smoke123!pass",
		}).
		SetResult(&seed).
		Post("/setup/seed")
	if err != nil {
		log.Fatalf("seed request failed: %v", err)
	}
	if resp.StatusCode() != 201 {
		log.Fatalf("seed failed (%d): %s — database must be empty", resp.StatusCode(), resp.String())
	}
	fmt.Printf("seeded tenant %s\n", seed.TenantID)

	client.SetHeader("X-Tenant-Id", seed.TenantID)

	// 2. login
	var login loginResponse
	resp, err = client.R().
		SetBody(map[string]string{"email": "smoke@example.com", "password": "Smoke123!pass"}).
		SetResult(&login).
		Post("/auth/login")
	if err != nil || resp.StatusCode() != 200 {
		log.Fatalf("login failed: %v (%d) %s", err, resp.StatusCode(), resp.String())
	}
	client.SetAuthToken(login.AccessToken)
	fmt.Printf("logged in as %s\n", login.UserID)

	// 3. stages (懒播种)
	var stages []stageItem
	resp, err = client.R().SetResult(&stages).Get("/pipeline/stages")
	if err != nil || resp.StatusCode() != 200 {
		log.Fatalf("stages failed: %v (%d) %s", err, resp.StatusCode(), resp.String())
	}
	if len(stages) != 6 {
		log.Fatalf("expected 6 default stages, got %d", len(stages))
	}
	var newStage, wonStage stageItem
	for _, st := range stages {
		switch st.Name {
		case "New":
			newStage = st
		case "Won":
			wonStage = st
		}
	}
	fmt.Printf("stages ok: New=%s Won=%s (kind=%s)\n", newStage.ID, wonStage.ID, wonStage.Kind)

	// 4. create deal
	var deal dealItem
	resp, err = client.R().
		SetBody(map[string]any{"stageId": newStage.ID, "title": "Smoke Deal", "amount": 1234.56}).
		SetResult(&deal).
		Post("/deals")
	if err != nil || resp.StatusCode() != 201 {
		log.Fatalf("create deal failed: %v (%d) %s", err, resp.StatusCode(), resp.String())
	}
	if deal.Status != "Open" {
		log.Fatalf("new deal should be Open, got %s", deal.Status)
	}
	fmt.Printf("created deal %s\n", deal.ID)

	// 5. move to Won
	resp, err = client.R().
		SetBody(map[string]string{"toStageId": wonStage.ID}).
		Patch("/deals/" + deal.ID + "/move")
	if err != nil || resp.StatusCode() != 204 {
		log.Fatalf("move failed: %v (%d) %s", err, resp.StatusCode(), resp.String())
	}

	// 6. verify derived status and ledger
	var deals []dealItem
	resp, err = client.R().SetResult(&deals).Get("/deals")
	if err != nil || resp.StatusCode() != 200 {
		log.Fatalf("list deals failed: %v (%d)", err, resp.StatusCode())
	}
	for _, d := range deals {
		if d.ID == deal.ID && d.Status != "Won" {
			log.Fatalf("deal should be Won after move, got %s", d.Status)
		}
	}

	var history []historyItem
	resp, err = client.R().SetResult(&history).Get("/deals/" + deal.ID + "/history")
	if err != nil || resp.StatusCode() != 200 {
		log.Fatalf("history failed: %v (%d)", err, resp.StatusCode())
	}
	if len(history) != 1 {
		log.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].ToStageID != wonStage.ID || history[0].MovedByUserID != login.UserID {
		log.Fatalf("history row mismatch: %+v", history[0])
	}

	fmt.Println("smoke test passed")
}
