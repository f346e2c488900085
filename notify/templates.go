package notify

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Template names accepted by Render.
const (
	TplAccessRequested   = "access_requested"
	TplAccessDecision    = "access_decision"
	TplAccessRevokedAll  = "access_revoked_all"
	TplAccessRevokedType = "access_revoked_type"
	TplLoginOTP          = "login_otp"
	TplPasswordResetOTP  = "password_reset_otp"
	TplRegistered        = "registered"
	TplGroupAdded        = "group_added"
	TplGroupDeleted      = "group_deleted"
)

var templates = map[string]*raymond.Template{
	TplAccessRequested:   raymond.MustParse(`<p>{{requester}} requested {{accessTypes}} access to {{itemType}}: {{itemName}}</p>`),
	TplAccessDecision:    raymond.MustParse(`<p>Your request for {{accessTypes}} access to {{itemName}} has been {{status}}.</p>`),
	TplAccessRevokedAll:  raymond.MustParse(`<p>Your access to {{itemName}} has been revoked.</p>`),
	TplAccessRevokedType: raymond.MustParse(`<p>Your {{accessType}} access to {{itemName}} has been revoked.</p>`),
	TplLoginOTP:          raymond.MustParse(`<p>Your OTP is: <b>{{otp}}</b></p><p>It expires in {{minutes}} minutes.</p>`),
	TplPasswordResetOTP:  raymond.MustParse(`<p>Your password reset OTP is: <b>{{otp}}</b>. This OTP will expire in {{minutes}} minutes.</p>`),
	TplRegistered:        raymond.MustParse(`<p>Hello {{name}}, your account has been created.</p>`),
	TplGroupAdded: raymond.MustParse(`<p>Hello,</p><p>You have been added to the group <b>{{groupName}}</b> by {{createdBy}}.</p>` +
		`{{#if members}}<p>Members:</p><ul>{{#each members}}<li>{{this}}</li>{{/each}}</ul>{{/if}}`),
	TplGroupDeleted: raymond.MustParse(`<p>The group <b>{{groupName}}</b> you were a member of has been deleted.</p>`),
}

// Render fills the named template. Values are HTML-escaped.
func Render(name string, data map[string]any) (string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	return tpl.Exec(data)
}
