package flow

// Variant names of the closed Settings payload.
const (
	VariantNone     = ""
	VariantEmail    = "email"
	VariantSMS      = "sms"
	VariantWebhook  = "webhook"
	VariantDatabase = "database"
	VariantSchedule = "schedule"
)

// Settings is the category-specific configuration of a node.
// At most one variant is set, and it must match the node category.
type Settings struct {
	Email    *EmailSettings    `json:"email,omitempty" validate:"omitempty"`
	SMS      *SMSSettings      `json:"sms,omitempty" validate:"omitempty"`
	Webhook  *WebhookSettings  `json:"webhook,omitempty" validate:"omitempty"`
	Database *DatabaseSettings `json:"database,omitempty" validate:"omitempty"`
	Schedule *ScheduleSettings `json:"schedule,omitempty" validate:"omitempty"`
}

type EmailSettings struct {
	Host     string `json:"host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	Port     string `json:"port,omitempty" validate:"omitempty,numeric"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type SMSSettings struct {
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=twilio aws-sns nexmo"`
	APIKey   string `json:"api_key,omitempty"`
}

type WebhookSettings struct {
	URL    string `json:"url,omitempty" validate:"omitempty,url"`
	Method string `json:"method,omitempty" validate:"omitempty,oneof=POST GET PUT DELETE"`
}

type DatabaseSettings struct {
	Host  string `json:"host,omitempty"`
	Name  string `json:"name,omitempty"`
	Table string `json:"table,omitempty"`
}

type ScheduleSettings struct {
	Interval int    `json:"interval,omitempty" validate:"omitempty,min=1"`
	Unit     string `json:"unit,omitempty" validate:"omitempty,oneof=minutes hours days"`
}

// SettingsVariantFor returns the settings variant a category accepts.
func SettingsVariantFor(category string) string {
	switch category {
	case "email":
		return VariantEmail
	case "sms":
		return VariantSMS
	case "webhook":
		return VariantWebhook
	case "database":
		return VariantDatabase
	case "time":
		return VariantSchedule
	}
	return VariantNone
}

// Variant returns the name of the populated variant, or "multiple" when more than one is set.
func (s *Settings) Variant() string {
	if s == nil {
		return VariantNone
	}
	var (
		name string
		n    int
	)
	if s.Email != nil {
		name, n = VariantEmail, n+1
	}
	if s.SMS != nil {
		name, n = VariantSMS, n+1
	}
	if s.Webhook != nil {
		name, n = VariantWebhook, n+1
	}
	if s.Database != nil {
		name, n = VariantDatabase, n+1
	}
	if s.Schedule != nil {
		name, n = VariantSchedule, n+1
	}
	if n > 1 {
		return "multiple"
	}
	return name
}

// withDefaults fills the defaults the edit form would have preselected.
func (s *Settings) withDefaults() *Settings {
	if s == nil {
		return nil
	}
	if s.Webhook != nil && s.Webhook.Method == "" {
		s.Webhook.Method = "POST"
	}
	if s.Schedule != nil && s.Schedule.Unit == "" {
		s.Schedule.Unit = "minutes"
	}
	return s
}

// merge returns s updated with u. Same variant merges field by field, a different one replaces.
func (s *Settings) merge(u *Settings) *Settings {
	out := u.clone()
	if s == nil || s.Variant() != u.Variant() {
		return out.withDefaults()
	}
	out = s.clone()
	switch {
	case u.Email != nil:
		out.Email.Host = pick(u.Email.Host, out.Email.Host)
		out.Email.Port = pick(u.Email.Port, out.Email.Port)
		out.Email.Username = pick(u.Email.Username, out.Email.Username)
		out.Email.Password = pick(u.Email.Password, out.Email.Password)
	case u.SMS != nil:
		out.SMS.Provider = pick(u.SMS.Provider, out.SMS.Provider)
		out.SMS.APIKey = pick(u.SMS.APIKey, out.SMS.APIKey)
	case u.Webhook != nil:
		out.Webhook.URL = pick(u.Webhook.URL, out.Webhook.URL)
		out.Webhook.Method = pick(u.Webhook.Method, out.Webhook.Method)
	case u.Database != nil:
		out.Database.Host = pick(u.Database.Host, out.Database.Host)
		out.Database.Name = pick(u.Database.Name, out.Database.Name)
		out.Database.Table = pick(u.Database.Table, out.Database.Table)
	case u.Schedule != nil:
		if u.Schedule.Interval != 0 {
			out.Schedule.Interval = u.Schedule.Interval
		}
		out.Schedule.Unit = pick(u.Schedule.Unit, out.Schedule.Unit)
	}
	return out.withDefaults()
}

func (s *Settings) clone() *Settings {
	if s == nil {
		return nil
	}
	out := &Settings{}
	if s.Email != nil {
		v := *s.Email
		out.Email = &v
	}
	if s.SMS != nil {
		v := *s.SMS
		out.SMS = &v
	}
	if s.Webhook != nil {
		v := *s.Webhook
		out.Webhook = &v
	}
	if s.Database != nil {
		v := *s.Database
		out.Database = &v
	}
	if s.Schedule != nil {
		v := *s.Schedule
		out.Schedule = &v
	}
	return out
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
