// Package smtp подключается к исходящему почтовому серверу для чеков об оплате
// и оповещений персонала.
package smtp

import "io"

// Client является подмножеством *smtp.Client для доставки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает аутентифицированные сессии клиента.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
