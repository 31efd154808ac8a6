package email

import "html/template"

const layoutHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #374151;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">`

const layoutFoot = `
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This email was sent automatically by MatchaRestock. Please do not reply.</p>
    </div>
</body>
</html>`

var verificationTmpl = template.Must(template.New("verification").Parse(layoutHead + `
        <h2 style="color: #10b981;">Verify your email</h2>
        <p>Your MatchaRestock verification code is:</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            {{.Code}}
        </div>
        <p>The code expires in 10 minutes. If you did not sign up, you can ignore this email.</p>` + layoutFoot))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(layoutHead + `
        <h2 style="color: #10b981;">Reset your password</h2>
        <p>Click the button below to choose a new password:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.Link}}" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; display: inline-block;">Reset password</a>
        </div>
        <p>Or copy this link into your browser:</p>
        <p style="background-color: #f3f4f6; padding: 10px; word-break: break-all;">{{.Link}}</p>
        <p>The link expires in 30 minutes. If you did not request a reset, you can ignore this email.</p>` + layoutFoot))

var brandWelcomeTmpl = template.Must(template.New("brand_welcome").Parse(layoutHead + `
        <h1 style="color: #10b981; text-align: center;">🍵 You're on the list!</h1>
        <div style="background-color: #f0fdf4; border-left: 4px solid #10b981; padding: 20px; margin: 20px 0;">
            <h2 style="color: #059669; margin-top: 0;">{{.Brand}} restock alerts are on</h2>
            <p style="font-size: 16px;">We'll email you as soon as {{.Brand}} matcha is back in stock.</p>
        </div>
        <p>You can manage your notifications in your <a href="{{.Dashboard}}" style="color: #2563eb;">dashboard</a>.</p>` + layoutFoot))

var restockTmpl = template.Must(template.New("restock").Parse(layoutHead + `
        <h1 style="color: #10b981; text-align: center;">🍵 Great News!</h1>
        <div style="background-color: #f0fdf4; border-left: 4px solid #10b981; padding: 20px; margin: 20px 0;">
            <h2 style="color: #059669; margin-top: 0;">{{.Brand}} is back in stock!</h2>
            <p style="font-size: 16px;">The matcha you've been waiting for is available again. Premium matcha tends to sell out quickly!</p>
        </div>
        <ul style="padding-left: 20px;">
        {{- range .Products}}
            <li style="margin-bottom: 12px;">
                <strong>{{.Name}}</strong>
                {{- if .URL}}
                <a href="{{.URL}}" style="background-color: #2563eb; color: white; padding: 6px 14px; text-decoration: none; border-radius: 6px; margin-left: 8px;">Shop now</a>
                {{- end}}
            </li>
        {{- end}}
        </ul>
        <p style="font-size: 14px; color: #6b7280; text-align: center; margin-top: 30px;">
            Happy matcha hunting! 🍵<br>
            The MatchaRestock Team<br>
            <a href="{{.Dashboard}}" style="color: #2563eb;">Manage notifications</a>
        </p>` + layoutFoot))
