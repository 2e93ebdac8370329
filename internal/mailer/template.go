package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const capsuleNotificationHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #4caf50 0%, #45a049 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .capsule-content { background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #4caf50; }
        .button { display: inline-block; background: #4caf50; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { text-align: center; margin-top: 30px; color: #666; font-size: 14px; }
        .meta { color: #666; font-size: 14px; margin-top: 10px; }
        .media-section { background: #e8f5e8; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #4caf50; }
        .image-item { max-width: 280px; border-radius: 8px; margin: 5px 0; }
        .image-item img { width: 100%; height: auto; border-radius: 8px; display: block; }
        .video-link { display: inline-block; background: #2196F3; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; margin: 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>📦 Memory Capsule</h1>
            <h2>{{.CapsuleTitle}}</h2>
        </div>
        <div class="content">
            <h3>{{.Greeting}}</h3>
            <p>{{.Intro}}</p>

            <div class="capsule-content">
                <h4>💌 Message:</h4>
                <p style="font-style: italic; white-space: pre-wrap;">{{.CapsuleMessage}}</p>
                <div class="meta">
                    <p><strong>Created:</strong> {{.CreatedDate}}</p>
                    {{if not .IsPersonal}}<p><strong>From:</strong> {{.SenderName}}</p>{{end}}
                </div>
            </div>

            {{if .HasMedia}}
            <div class="media-section">
                <h4>📷 Attached Memories</h4>
                {{if .ImageURLs}}
                <h5>Photos ({{len .ImageURLs}}):</h5>
                {{range .ImageURLs}}
                <div class="image-item"><img src="{{.}}" alt="Memory photo"></div>
                {{end}}
                {{end}}
                {{if .VideoURLs}}
                <h5>Videos ({{len .VideoURLs}}):</h5>
                {{range $i, $url := .VideoURLs}}
                <a href="{{$url}}" class="video-link" target="_blank">🎥 Watch Video {{inc $i}}</a>
                {{end}}
                <p style="color: #555; font-size: 14px;">Click the links above to view the videos in your browser.</p>
                {{end}}
            </div>
            {{end}}

            {{if .IsPersonal}}
            <p>You can view this capsule and all media in your Quivio timeline:</p>
            <a href="{{.FrontendURL}}/timeline" class="button">View in Quivio</a>
            {{else}}
            <p>This memory capsule was shared with you through Quivio, a personal journaling platform.</p>
            <a href="{{.FrontendURL}}" class="button">Explore Quivio</a>
            {{end}}
        </div>
        <div class="footer">
            <p>This memory capsule was created with Quivio</p>
            <p>Preserving memories, one moment at a time 🌟</p>
        </div>
    </div>
</body>
</html>
`

var capsuleTmpl = template.Must(template.New("capsule").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(capsuleNotificationHTML))

type capsuleTemplateData struct {
	CapsuleNotification
	Subject     string
	Greeting    string
	Intro       string
	HasMedia    bool
	FrontendURL string
}

func renderCapsuleNotification(n CapsuleNotification, frontendURL string) (subject, html, text string, err error) {
	data := capsuleTemplateData{
		CapsuleNotification: n,
		HasMedia:            len(n.ImageURLs)+len(n.VideoURLs) > 0,
		FrontendURL:         frontendURL,
	}

	if n.IsPersonal {
		data.Subject = fmt.Sprintf("🎉 Your Memory Capsule '%s' Has Opened!", n.CapsuleTitle)
		data.Greeting = fmt.Sprintf("Hello %s!", n.SenderName)
		data.Intro = "Your memory capsule has reached its opening date and is now available to view!"
	} else {
		data.Subject = fmt.Sprintf("🎁 %s Sent You a Memory Capsule!", n.SenderName)
		data.Greeting = "Hello!"
		data.Intro = fmt.Sprintf("%s has shared a special memory capsule with you through Quivio!", n.SenderName)
	}

	var buf bytes.Buffer
	if err := capsuleTmpl.Execute(&buf, data); err != nil {
		return "", "", "", err
	}

	return data.Subject, buf.String(), renderText(data), nil
}

func renderText(data capsuleTemplateData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n", data.Greeting, data.Intro)
	fmt.Fprintf(&b, "Memory Capsule: %s\n\nMessage:\n%s\n", data.CapsuleTitle, data.CapsuleMessage)

	if data.HasMedia {
		b.WriteString("\nAttached Media:")
		if len(data.ImageURLs) > 0 {
			fmt.Fprintf(&b, "\n- %d photo(s)", len(data.ImageURLs))
		}
		if len(data.VideoURLs) > 0 {
			fmt.Fprintf(&b, "\n- %d video(s)", len(data.VideoURLs))
			for i, url := range data.VideoURLs {
				fmt.Fprintf(&b, "\n  Video %d: %s", i+1, url)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nCreated: %s\n", data.CreatedDate)
	if !data.IsPersonal {
		fmt.Fprintf(&b, "From: %s\n", data.SenderName)
	}

	if data.IsPersonal {
		fmt.Fprintf(&b, "\nView in Quivio: %s/timeline\n", data.FrontendURL)
	} else {
		fmt.Fprintf(&b, "\nExplore Quivio: %s\n", data.FrontendURL)
	}
	return b.String()
}
