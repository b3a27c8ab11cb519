package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/collectwise/backend/internal/config"
	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/service/ai"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	heuristic := flag.Bool("heuristic", false, "忽略 Ark 配置，只使用关键词启发式")
	scriptPath := flag.String("script", "", "逐行读取用户消息的脚本文件，留空则读取标准输入")
	timeout := flag.Duration("timeout", 60*time.Second, "单轮谈判超时时间")
	events := flag.Bool("events", false, "在标准错误输出打印引擎事件")
	flag.Parse()

	input := io.Reader(os.Stdin)
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			log.Fatalf("无法打开脚本文件: %v", err)
		}
		defer f.Close()
		input = f
	}

	sink := negotiation.EventSink(negotiation.NopSink{})
	if *events {
		sink = negotiation.NewZerologSink(config.LogConfig{Level: "debug", Format: "console"}.NewLogger(os.Stderr))
	}

	var classifier negotiation.Classifier
	var generator negotiation.Generator
	if cfg.AI.Enabled() && !*heuristic {
		svc, err := ai.NewService(context.Background(), persona.NewMemoryStore(persona.Seed()), cfg.AI)
		if err != nil {
			log.Printf("[WARN] AI 服务初始化失败，改用启发式: %v", err)
		} else {
			classifier, generator = svc, svc
		}
	}

	engine := negotiation.New(classifier, generator,
		negotiation.WithTotalDebt(cfg.Negotiation.TotalDebt),
		negotiation.WithPaymentBaseURL(cfg.Negotiation.PaymentBaseURL),
		negotiation.WithAdapterTimeout(cfg.Negotiation.AdapterTimeout),
		negotiation.WithReclassification(cfg.Negotiation.Reclassify),
		negotiation.WithEventSink(sink),
	)

	if err := run(engine, cfg.Negotiation.Greeting, input, os.Stdout, *timeout); err != nil {
		log.Fatalf("谈判中断: %v", err)
	}
}

// run 逐行读取用户消息并打印系统回复，直到会话结束或输入耗尽。
func run(engine *negotiation.Engine, greeting string, in io.Reader, out io.Writer, timeout time.Duration) error {
	state := model.State{Turns: []model.Turn{model.SystemTurn(greeting)}}
	fmt.Fprintf(out, "agent> %s\n", greeting)

	scanner := bufio.NewScanner(in)
	for !state.ConversationEnded {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		pending := state.Clone()
		pending.Turns = append(pending.Turns, model.UserTurn(text))

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		next, err := engine.Advance(negotiation.WithSessionID(ctx, "console"), pending)
		cancel()
		if err != nil {
			return err
		}

		for _, turn := range next.Turns[len(pending.Turns):] {
			fmt.Fprintf(out, "agent> %s\n", turn.Content)
		}
		state = next
	}

	if state.FinalAgreement != nil {
		fmt.Fprintf(out, "agreed: %s\npayment link: %s\n", state.FinalAgreement.Label, engine.PaymentLink(state.FinalAgreement.Label))
	} else {
		fmt.Fprintln(out, "conversation ended without an agreement")
	}
	return nil
}
