package internal

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	helpText = "Send me a link to a YouTube video and I will:\n" +
		"1. Fetch its subtitles\n" +
		"2. Write a short summary\n" +
		"3. Answer your questions about the video\n\n" +
		"/summary - show the last summary again\n" +
		"/transcript - get the subtitles as a file\n" +
		"/reset - forget the current video"

	processingText  = "🎬 <b>Processing the video...</b>"
	followUpHint    = "🤔 Now you can ask me questions about the video!"
	invalidLinkText = "❌ Could not recognize a YouTube video link. Please make sure the link is correct."
	noCaptionsText  = "❌ <b>Could not get subtitles for this video.</b>\n" +
		"Possible reasons:\n" +
		"• Subtitles are disabled\n" +
		"• The video has no subtitles\n" +
		"• The video is unavailable"
	noSessionText      = "❌ <b>Send me a YouTube video link first!</b>"
	noSummaryText      = "The summary of this video is not ready. Send the link again to retry."
	resetText          = "Done, I forgot the video. Send a new link whenever you like."
	notAllowedText     = "⛔ Sorry, this bot is private."
	unknownCommandText = "Unknown command. Try /help."
)

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "What this bot does"},
	{Command: "help", Description: "How to use the bot"},
	{Command: "summary", Description: "Show the last summary again"},
	{Command: "transcript", Description: "Get the subtitles as a file"},
	{Command: "reset", Description: "Forget the current video"},
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func startText(user *tgbotapi.User) string {
	greeting := "Hi!"
	if user != nil {
		name := user.FirstName
		if name == "" {
			name = user.UserName
		}
		greeting = fmt.Sprintf(`Hi, <a href="tg://user?id=%d">%s</a>!`, user.ID, escape(name))
	}
	return greeting + "\n" + helpText
}

func summaryReply(summary string) string {
	return "📝 <b>Video summary:</b>\n\n" + summary + "\n\n" + followUpHint
}

func answerReply(answer string) string {
	return "🤖 <b>Answer:</b>\n\n" + answer
}

func videoErrorText(err error) string {
	return "❌ <b>An error occurred while processing the video.</b>\nDetails: " + escape(err.Error())
}

func questionErrorText(err error) string {
	return "❌ <b>An error occurred:</b> " + escape(err.Error())
}
