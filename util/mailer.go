package util

import (
	"fmt"
	"log"

	"github.com/go-gomail/gomail"
	"github.com/medcenter/appointment-api/config"
)

// AppointmentMail holds the details rendered into a confirmation email.
type AppointmentMail struct {
	To          string
	PatientName string
	DoctorName  string
	Date        string
	Time        string
}

// SendAppointmentConfirmation sends a booking confirmation email to the
// patient. When the mail transport is not configured it is a no-op success;
// the booking flow never depends on delivery.
func SendAppointmentConfirmation(m AppointmentMail) error {
	cfg := config.LoadConfig()
	if cfg.MailHost == "" || cfg.MailUser == "" || cfg.MailPass == "" {
		log.Printf("Mail transport not configured, skipping confirmation to %s", m.To)
		return nil
	}

	sender := cfg.MailFrom
	if sender == "" {
		sender = "noreply@medcenter.com"
	}

	body := fmt.Sprintf(`Dear %s,

Your appointment has been successfully confirmed!

Appointment Details:
- Doctor: %s
- Date: %s
- Time: %s

Please arrive 15 minutes before your scheduled appointment time.

If you need to reschedule or cancel, please contact us at least 24 hours in advance.

Best regards,
Medical Center Team
`, m.PatientName, m.DoctorName, m.Date, m.Time)

	msg := gomail.NewMessage()
	msg.SetHeader("From", sender)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", fmt.Sprintf("Appointment Confirmation - %s", m.DoctorName))
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending confirmation email: %v", err)
	}
	return nil
}
