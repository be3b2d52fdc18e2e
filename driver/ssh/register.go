package ssh

import "github.com/gobeaver/sekit"

func init() {
	var sshCfg Config
	if cfg, err := sekit.GetConfig(); err == nil {
		sshCfg = Config{
			User:    cfg.SSHUser,
			KeyFile: cfg.SSHKeyFile,
			Port:    cfg.SSHPort,
		}
	}
	sekit.RegisterBackend(sekit.BackendSSH, New(sshCfg))
}
