package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"hems-scheduler/backend/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailNotifier 向讲者发送报名确认邮件
type MailNotifier struct {
	addr     string
	auth     smtp.Auth
	from     string
	sendMail sendMailFunc
}

// NewMailNotifier 创建邮件渠道，SMTPHost 为空时返回错误
func NewMailNotifier(cfg *config.MailConfig) (*MailNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("邮件渠道未配置 SMTP 主机")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("邮件渠道未配置发件人")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	return &MailNotifier{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:     auth,
		from:     cfg.From,
		sendMail: smtp.SendMail,
	}, nil
}

// Notify smtp.SendMail 不接受 context，超时由调用方控制整体投递时长
func (n *MailNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildConfirmationMail(n.from, event)
	if err := n.sendMail(n.addr, n.auth, n.from, []string{event.SpeakerEmail}, msg); err != nil {
		return fmt.Errorf("发送确认邮件失败: %w", err)
	}
	return nil
}

func buildConfirmationMail(from string, event Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", event.SpeakerEmail)
	fmt.Fprintf(&b, "Subject: Speaker registration confirmed - %s\r\n", event.QuarterLabel)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", event.SpeakerName)
	b.WriteString("Thank you for registering as a speaker. Your slot is confirmed:\r\n\r\n")
	fmt.Fprintf(&b, "  Quarter:      %s\r\n", event.QuarterLabel)
	fmt.Fprintf(&b, "  Meeting date: %s\r\n", event.MeetingDate)
	fmt.Fprintf(&b, "  Time:         %s - %s (%s)\r\n", event.SlotStart, event.SlotEnd, event.SlotName)
	fmt.Fprintf(&b, "  Topic:        %s\r\n\r\n", event.TopicTitle)
	fmt.Fprintf(&b, "Reference: %s\r\n", event.RegistrationID)
	return []byte(b.String())
}
