package smtp

import (
	"ProctorGolang/internal/entity"
	"fmt"
	smtpPkg "net/smtp"
	"os"
)

type ItfSmtp interface {
	SendExpulsionNotice(recipients []string, expulsion entity.Expulsion) error
}

type smtp struct {
	auth smtpPkg.Auth
	mail string
	host string
	addr string
}

func New() ItfSmtp {
	mail := os.Getenv("SMTP_MAIL")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	auth := smtpPkg.PlainAuth("", mail, password, host)

	return &smtp{
		auth: auth,
		mail: mail,
		host: host,
		addr: host + ":587",
	}
}

func (s *smtp) SendExpulsionNotice(recipients []string, expulsion entity.Expulsion) error {
	if len(recipients) == 0 {
		return nil
	}

	message := []byte(fmt.Sprintf(
		"Subject: Exam expulsion - %s\r\n\r\n"+
			"Student %s was expelled from exam %q.\r\n"+
			"Reason: %s\r\n%s\r\nWarnings at expulsion: %d\r\nAttempt: %s\r\n",
		expulsion.ExamTitle,
		expulsion.StudentName,
		expulsion.ExamTitle,
		expulsion.Reason,
		expulsion.Description,
		expulsion.PriorWarnings,
		expulsion.AttemptID,
	))

	if err := smtpPkg.SendMail(s.addr, s.auth, s.mail, recipients, message); err != nil {
		return err
	}

	return nil
}
