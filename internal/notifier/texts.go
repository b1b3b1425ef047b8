package notifier

// Status is a lifecycle or progress notice without data.
type Status string

const (
	StatusStarted            Status = "bot_started"
	StatusStopped            Status = "bot_stopped"
	StatusLoginWaiting       Status = "login_waiting"
	StatusLoginDetected      Status = "login_detected"
	StatusLoginTimeout       Status = "login_timeout"
	StatusOpeningSite        Status = "opening_site"
	StatusLookingLoginButton Status = "looking_login_button"
	StatusLookingEmail       Status = "looking_email_field"
	StatusFillingEmail       Status = "filling_email"
	StatusLookingPassword    Status = "looking_password_field"
	StatusFillingPassword    Status = "filling_password"
	StatusClickingLogin      Status = "clicking_login"
	StatusMonitoring         Status = "monitoring_game"
)

const DefaultLanguage = "en"

type texts struct {
	Player      string
	Banker      string
	Tie         string
	Result      string
	Percentages string
	Analysis    string
	PlayersCnt  string
	Percentage  string
	BotError    string

	// demo
	Probabilities   string
	GameResult      string
	WinnerPlayer    string
	WinnerBanker    string
	PlayerWinsRound string
	BankerWinsRound string
	ItsDraw         string
	WinLossRecord   string
	TotalWins       string
	TotalLosses     string
	WinRate         string
	Statistics      string
	Bettors         string

	Statuses map[Status]string
}

var translations = map[string]texts{
	"en": {
		Player:      "Player",
		Banker:      "Banker",
		Tie:         "Tie",
		Result:      "Result",
		Percentages: "Percentages",
		Analysis:    "Analysis",
		PlayersCnt:  "Players",
		Percentage:  "Percentage",
		BotError:    "Bot error",

		Probabilities:   "PROBABILITIES",
		GameResult:      "GAME RESULT",
		WinnerPlayer:    "WINNER: PLAYER",
		WinnerBanker:    "WINNER: BANKER",
		PlayerWinsRound: "Player wins this round!",
		BankerWinsRound: "Banker wins this round!",
		ItsDraw:         "It's a draw!",
		WinLossRecord:   "WIN/LOSS RECORD",
		TotalWins:       "Total Wins",
		TotalLosses:     "Total Losses",
		WinRate:         "Win Rate",
		Statistics:      "STATISTICS",
		Bettors:         "bettors",

		Statuses: map[Status]string{
			StatusStarted:            "🤖 Bot started successfully!",
			StatusStopped:            "🛑 Bot stopped successfully!",
			StatusLoginWaiting:       "⏳ Waiting for manual login... Please log in on the site, then the bot will start.",
			StatusLoginDetected:      "✅ Login detected. Starting monitoring.",
			StatusLoginTimeout:       "❌ Login not detected within timeout. Please restart and log in quickly.",
			StatusOpeningSite:        "🌐 Opening the site...",
			StatusLookingLoginButton: "🔍 Looking for the login button...",
			StatusLookingEmail:       "🔍 Looking for the email field...",
			StatusFillingEmail:       "✏️ Filling email field...",
			StatusLookingPassword:    "🔍 Looking for the password field...",
			StatusFillingPassword:    "✏️ Filling password field...",
			StatusClickingLogin:      "🖱️ Clicking login button...",
			StatusMonitoring:         "👁️ Monitoring the game...",
		},
	},
	"pt": {
		Player:      "Jogador",
		Banker:      "Banqueiro",
		Tie:         "Empate",
		Result:      "Resultado",
		Percentages: "Percentuais",
		Analysis:    "Análise",
		PlayersCnt:  "Jogadores",
		Percentage:  "Percentual",
		BotError:    "Erro do bot",

		Probabilities:   "PROBABILIDADES",
		GameResult:      "RESULTADO DO JOGO",
		WinnerPlayer:    "VENCEDOR: JOGADOR",
		WinnerBanker:    "VENCEDOR: BANCO",
		PlayerWinsRound: "Jogador vence esta rodada!",
		BankerWinsRound: "Banco vence esta rodada!",
		ItsDraw:         "É um empate!",
		WinLossRecord:   "REGISTRO DE VITÓRIAS/DERROTAS",
		TotalWins:       "Total de Vitórias",
		TotalLosses:     "Total de Derrotas",
		WinRate:         "Taxa de Vitória",
		Statistics:      "ESTATÍSTICAS",
		Bettors:         "apostadores",

		Statuses: map[Status]string{
			StatusStarted:            "🤖 Bot iniciado com sucesso!",
			StatusStopped:            "🛑 Bot parado com sucesso!",
			StatusLoginWaiting:       "⏳ Aguardando login manual... Faça login no site e o bot começará.",
			StatusLoginDetected:      "✅ Login detectado. Iniciando monitoramento.",
			StatusLoginTimeout:       "❌ Login não detectado no tempo limite. Reinicie e faça login rapidamente.",
			StatusOpeningSite:        "🌐 Abrindo o site...",
			StatusLookingLoginButton: "🔍 Procurando o botão de login...",
			StatusLookingEmail:       "🔍 Procurando o campo de email...",
			StatusFillingEmail:       "✏️ Preenchendo campo de email...",
			StatusLookingPassword:    "🔍 Procurando o campo de senha...",
			StatusFillingPassword:    "✏️ Preenchendo campo de senha...",
			StatusClickingLogin:      "🖱️ Clicando no botão de login...",
			StatusMonitoring:         "👁️ Monitorando o jogo...",
		},
	},
}

// Supported reports whether code has a translation table.
func Supported(code string) bool {
	_, ok := translations[code]
	return ok
}

// Languages lists the supported language codes.
func Languages() []string {
	return []string{"en", "pt"}
}

func textsFor(code string) texts {
	if t, ok := translations[code]; ok {
		return t
	}
	return translations[DefaultLanguage]
}
