package app

import (
	"fmt"
	"io"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp はサブコマンド一覧を表示することを示す。
	CommandHelp Command = "help"
)

// commands はサブコマンドと説明の一覧。表示順を兼ねる。
var commands = []struct {
	name        Command
	description string
}{
	{CommandServe, "start the HTTP API server (default)"},
	{CommandMigrate, "apply pending database migrations"},
	{CommandHealthcheck, "probe http://localhost:$SERVER_PORT/health"},
	{CommandHelp, "show this help"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
// -h と --help はCommandHelpとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "-h", "--help":
		return CommandHelp
	}
	for _, c := range commands {
		if string(c.name) == args[0] {
			return c.name
		}
	}
	return CommandServe
}

// writeUsage はサブコマンド一覧をwに書き出す。
func writeUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: gamelobby [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.description)
	}
}
